package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule  = "pkt.systems/sparqlab"
	unknownVersion = "v0.0.0-unknown"
	dirtySuffix    = "+dirty"
)

// buildVersion is set via -ldflags "-X pkt.systems/sparqlab/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running binary.
type Info struct {
	Module  string
	Version string
	Dirty   bool
}

// String renders "<module> <version>".
func (i Info) String() string {
	v := i.Version
	if i.Dirty {
		v += dirtySuffix
	}
	return i.Module + " " + v
}

// Current returns the version without a dirty marker. Used in the
// User-Agent and the OpenAPI document.
func Current() string {
	return Get().Version
}

// Get resolves version information from the linker flag or build info.
func Get() Info {
	info, _ := debug.ReadBuildInfo()
	return resolve(buildVersion, info)
}

func resolve(linked string, info *debug.BuildInfo) Info {
	out := Info{Module: defaultModule, Version: unknownVersion}
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
	}
	candidates := []string{linked}
	if info != nil {
		if v := strings.TrimSpace(info.Main.Version); v != "(devel)" {
			candidates = append(candidates, v)
		}
		candidates = append(candidates, pseudoFromBuildInfo(info, true))
	}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		out.Version = strings.TrimSuffix(candidate, dirtySuffix)
		out.Dirty = strings.HasSuffix(candidate, dirtySuffix)
		break
	}
	return out
}

// pseudoFromBuildInfo builds a Go pseudo-version from VCS stamps, with a
// +dirty suffix for modified trees when includeDirty is set.
func pseudoFromBuildInfo(info *debug.BuildInfo, includeDirty bool) string {
	if info == nil {
		return ""
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	revision := settings["vcs.revision"]
	stamp, err := time.Parse(time.RFC3339, settings["vcs.time"])
	if revision == "" || err != nil {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "v0.0.0-" + stamp.UTC().Format("20060102150405") + "-" + revision
	if includeDirty && settings["vcs.modified"] == "true" {
		v += dirtySuffix
	}
	return v
}
