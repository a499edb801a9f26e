package core

import (
	"strings"
	"testing"
)

func TestNewTabIDShape(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		id := string(newTabID())
		if len(id) != tabIDLength {
			t.Fatalf("unexpected id length %q", id)
		}
		if strings.Trim(id, "abcdefghijklmnopqrstuvwxyz234567") != "" {
			t.Fatalf("unexpected id alphabet %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
