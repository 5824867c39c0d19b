// Package buildinfo reports the assistant's version and build metadata.
// Release builds stamp the variables below with -ldflags "-X"; other
// builds fall back to the VCS settings the Go toolchain records.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Stamped at link time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

var startTime = time.Now()

// Info is the metadata printed by "assistant version".
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GitBranch string `json:"git_branch"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Fields returns the info as ordered label/value pairs for text output.
func (i Info) Fields() [][2]string {
	return [][2]string{
		{"version", i.Version},
		{"git_commit", i.GitCommit},
		{"git_branch", i.GitBranch},
		{"build_time", i.BuildTime},
		{"go_version", i.GoVersion},
		{"os", i.OS},
		{"arch", i.Arch},
	}
}

// Read collects the build metadata of the running binary.
func Read() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyVCS(&info, bi.Settings)
	}
	return info
}

// applyVCS fills commit and build time from toolchain VCS settings when
// they were not stamped.
func applyVCS(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" && s.Value != "" {
				info.GitCommit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		}
	}
}

// Uptime returns the time since process start, to the second.
func Uptime() time.Duration {
	return time.Since(startTime).Truncate(time.Second)
}

// UserAgent is sent on every outbound HTTP request. Wikipedia rejects
// requests without a descriptive agent.
func UserAgent() string {
	return fmt.Sprintf("voice-assistant/%s (+https://github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1)", Version)
}

// String returns a one-line summary for logs and "assistant version".
func (i Info) String() string {
	return fmt.Sprintf("assistant %s (%s@%s) built %s", i.Version, i.GitCommit, i.GitBranch, i.BuildTime)
}
