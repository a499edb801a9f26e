package schema

import (
	"errors"
	"testing"
)

func TestNormalizeTabName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		max   int
		want  TabName
		valid bool
	}{
		{"simple", "Query", 0, "Query", true},
		{"trimmed", "  Books  ", 0, "Books", true},
		{"at-limit", "abcd", 4, "abcd", true},
		{"runes-count", "åäöü", 4, "åäöü", true},
		{"empty", "", 0, "", false},
		{"blank", "   ", 0, "", false},
		{"too-long", "abcde", 4, "", false},
	}

	for _, tc := range cases {
		got, err := NormalizeTabName(tc.input, tc.max)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidTabName) {
			t.Fatalf("case %q expected ErrInvalidTabName, got %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("case %q got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := []struct {
		name  string
		input string
		valid bool
	}{
		{"https", "https://example.org/sparql", true},
		{"http-port", "http://localhost:3030/ds/query", true},
		{"upper-scheme", "HTTPS://example.org/sparql", true},
		{"empty", "", false},
		{"relative", "/sparql", false},
		{"ftp", "ftp://example.org/sparql", false},
		{"no-host", "https:///sparql", false},
	}

	for _, tc := range cases {
		_, err := NormalizeEndpoint(tc.input)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidEndpoint) {
			t.Fatalf("case %q expected ErrInvalidEndpoint, got %v", tc.name, err)
		}
	}

	got, err := NormalizeEndpoint("  https://example.org/sparql \n")
	if err != nil || got != "https://example.org/sparql" {
		t.Fatalf("expected trimmed endpoint, got %q (%v)", got, err)
	}
}

func TestNormalizeMethod(t *testing.T) {
	if got, err := NormalizeMethod(" get "); err != nil || got != MethodGET {
		t.Fatalf("expected GET, got %q (%v)", got, err)
	}
	if got, err := NormalizeMethod(""); err != nil || got != "" {
		t.Fatalf("expected empty method to stay empty, got %q (%v)", got, err)
	}
	if _, err := NormalizeMethod("PUT"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
