package version

import (
	"runtime/debug"
	"testing"
)

func vcsInfo(modified string) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "pkt.systems/sparqlab", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: modified},
		},
	}
}

func TestPseudoFromBuildInfo(t *testing.T) {
	cases := []struct {
		name         string
		info         *debug.BuildInfo
		includeDirty bool
		want         string
	}{
		{"clean", vcsInfo("false"), true, "v0.0.0-20250102030405-1234567890ab"},
		{"dirty", vcsInfo("true"), true, "v0.0.0-20250102030405-1234567890ab+dirty"},
		{"dirty-suppressed", vcsInfo("true"), false, "v0.0.0-20250102030405-1234567890ab"},
		{"nil", nil, true, ""},
		{"no-vcs", &debug.BuildInfo{}, true, ""},
	}
	for _, tc := range cases {
		if got := pseudoFromBuildInfo(tc.info, tc.includeDirty); got != tc.want {
			t.Fatalf("case %q: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestResolvePrefersLinkedVersion(t *testing.T) {
	got := resolve("v1.2.3", vcsInfo("true"))
	if got.Version != "v1.2.3" || got.Dirty {
		t.Fatalf("unexpected info %+v", got)
	}
	if got.String() != "pkt.systems/sparqlab v1.2.3" {
		t.Fatalf("unexpected string %q", got.String())
	}
}

func TestResolveFallsBackToVCS(t *testing.T) {
	got := resolve("", vcsInfo("true"))
	if got.Version != "v0.0.0-20250102030405-1234567890ab" || !got.Dirty {
		t.Fatalf("unexpected info %+v", got)
	}
	if got.String() != "pkt.systems/sparqlab v0.0.0-20250102030405-1234567890ab+dirty" {
		t.Fatalf("unexpected string %q", got.String())
	}

	tagged := vcsInfo("false")
	tagged.Main.Version = "v0.4.0"
	if got := resolve("", tagged); got.Version != "v0.4.0" {
		t.Fatalf("expected module version, got %+v", got)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	got := resolve("", nil)
	if got.Module != defaultModule || got.Version != unknownVersion {
		t.Fatalf("unexpected info %+v", got)
	}
}

func TestCurrentUsesLinkedVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v9.9.9+dirty"
	t.Cleanup(func() { buildVersion = old })
	if got := Current(); got != "v9.9.9" {
		t.Fatalf("expected dirty marker stripped, got %q", got)
	}
}
