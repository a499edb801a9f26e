package format

import (
	"strings"
	"testing"

	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

func TestFormatResultsAlignsColumns(t *testing.T) {
	res := &sparql.Results{
		Vars: []string{"s", "label"},
		Bindings: []map[string]sparql.Term{
			{"s": {Type: "uri", Value: "http://example.org/a"}, "label": {Type: "literal", Value: "A", Lang: "en"}},
			{"s": {Type: "bnode", Value: "b0"}},
		},
	}
	lines := NewPlainRenderer().FormatResults(res)
	if len(lines) != 5 {
		t.Fatalf("expected header, separator, 2 rows and count, got %v", lines)
	}
	if !strings.HasPrefix(lines[0], "s ") || !strings.Contains(lines[0], "label") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[2], `"A"@en`) {
		t.Fatalf("expected language literal, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "_:b0") {
		t.Fatalf("expected blank node, got %q", lines[3])
	}
	if lines[4] != "(2 rows)" {
		t.Fatalf("expected row count, got %q", lines[4])
	}
	if strings.Index(lines[0], "label") != strings.Index(lines[2], `"A"`) {
		t.Fatalf("expected aligned columns:\n%s", strings.Join(lines, "\n"))
	}
}

func TestFormatResultsBoolean(t *testing.T) {
	yes := true
	lines := NewPlainRenderer().FormatResults(&sparql.Results{Boolean: &yes})
	if len(lines) != 1 || lines[0] != "true" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestFormatSummaryError(t *testing.T) {
	lines := NewPlainRenderer().FormatSummary(&schema.ResponseSummary{
		Error: &schema.ResponseError{Status: 400, StatusText: "400 Bad Request", Text: "parse error\nline 1"},
	})
	if len(lines) != 3 || lines[0] != "error: 400 Bad Request" || lines[2] != "line 1" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestFormatSummaryTruncated(t *testing.T) {
	lines := NewPlainRenderer().FormatSummary(&schema.ResponseSummary{Status: 200, Truncated: true})
	if len(lines) != 1 || !strings.Contains(lines[0], "too large") {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestFormatTabsMarksActive(t *testing.T) {
	lines := NewPlainRenderer().FormatTabs([]schema.TabSnapshot{
		{ID: "a1", Name: "Query", Endpoint: "https://example.org/sparql", Status: schema.TabStatusIdle},
		{ID: "b2", Name: "Query 1", Endpoint: "https://example.org/sparql", Status: schema.TabStatusIdle, Active: true, LastOutcome: schema.QueryOutcomeSuccess},
	})
	if len(lines) != 2 {
		t.Fatalf("unexpected lines %v", lines)
	}
	if !strings.HasPrefix(lines[1], ActiveMarker+"b2") || strings.HasPrefix(lines[0], ActiveMarker) {
		t.Fatalf("expected active marker on second tab, got %v", lines)
	}
	if !strings.HasSuffix(lines[1], "idle/success") {
		t.Fatalf("expected outcome, got %q", lines[1])
	}
}

func TestFormatEventQueryResponse(t *testing.T) {
	p := NewPlainRenderer()
	lines := p.FormatEvent(schema.TabEvent{Type: schema.TabEventQueryResponse, TabID: "t", DurationMs: 12, Response: &schema.ResponseSummary{Status: 200}})
	if len(lines) != 1 || lines[0] != "tab t query completed: 200 in 12ms" {
		t.Fatalf("unexpected lines %v", lines)
	}
	lines = p.FormatEvent(schema.TabEvent{Type: schema.TabEventQueryResponse, TabID: "t", Error: "boom\ntrace"})
	if len(lines) != 1 || !strings.HasSuffix(lines[0], ": boom") {
		t.Fatalf("unexpected lines %v", lines)
	}
	if lines := p.FormatEvent(schema.TabEvent{Type: schema.TabEventClose}); lines != nil {
		t.Fatalf("expected close event to be silent, got %v", lines)
	}
}
