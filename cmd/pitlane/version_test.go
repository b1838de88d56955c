package main

import (
	"runtime/debug"
	"testing"
)

// TestResolveVersion covers where "pitlane --version" gets its string from:
// a release build stamps it with ldflags, "go install ...@vX" leaves it in
// the module build info, and a local checkout has neither.
func TestResolveVersion(t *testing.T) {
	module := func(v string) *debug.BuildInfo {
		return &debug.BuildInfo{Main: debug.Module{Version: v}}
	}

	tests := []struct {
		name    string
		ldflags string
		info    *debug.BuildInfo
		want    string
	}{
		{"release stamp beats module version", "v2.0.1", module("v0.0.0"), "v2.0.1"},
		{"release stamp without build info", "v2.0.1", nil, "v2.0.1"},
		{"go install tag", "dev", module("v0.4.0"), "v0.4.0"},
		{"pseudo-version from go install", "dev", module("v0.4.1-0.20300101000000-abcdef123456"), "v0.4.1-0.20300101000000-abcdef123456"},
		{"local checkout", "dev", module("(devel)"), "dev"},
		{"module without version", "dev", &debug.BuildInfo{}, "dev"},
		{"no build info", "dev", nil, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveVersion(tt.ldflags, tt.info); got != tt.want {
				t.Errorf("resolveVersion(%q) = %q, want %q", tt.ldflags, got, tt.want)
			}
		})
	}
}
