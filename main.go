package main

import (
	"runtime/debug"

	"github.com/gemtutor-ai/gemtutor/cmd"
)

// version info injected via ldflags:
// go build -ldflags "-X main.version=1.1.0 -X main.commit=abc123 -X main.date=2026-08-26"
var (
	version = "1.1.0"
	commit  = "none"
	date    = "unknown"
)

func init() {
	// Auto-populate commit from Go build info (vcs.revision) when not set via ldflags.
	if commit == "none" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
					break
				}
			}
		}
	}
}

func main() {
	cmd.Execute(version, commit, date)
}
