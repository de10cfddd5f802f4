// Package version reports how the running harvest binary was built.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set with -ldflags, for example:
//
//	go build -ldflags "-X github.com/teranos/harvest/version.CommitHash=$(git rev-parse HEAD) \
//	  -X github.com/teranos/harvest/version.Version=v1.4.0"
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info describes the binary and, when known, the checkpoint schema it opened.
type Info struct {
	Version       string `json:"version"`
	CommitHash    string `json:"commit_hash"`
	BuildTime     string `json:"build_time"`
	GoVersion     string `json:"go_version"`
	Platform      string `json:"platform"`
	SchemaVersion string `json:"schema_version,omitempty"`
}

func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Released is false for local builds without a version tag.
func (i Info) Released() bool {
	return i.Version != "" && i.Version != "dev"
}

// String is the one-line form printed by "harvest version".
func (i Info) String() string {
	var b strings.Builder
	b.WriteString("harvest ")
	if i.Released() {
		b.WriteString(i.Version)
	} else {
		b.WriteString("dev")
	}
	fmt.Fprintf(&b, " (commit %s, built %s)", i.CommitHash, i.BuildTime)
	return b.String()
}

// WithSchema returns a copy carrying the checkpoint schema version.
func (i Info) WithSchema(v string) Info {
	i.SchemaVersion = v
	return i
}

// Short is the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) > 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
