// Package version holds build information for the aasify CLI.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// String renders the version line, colored when colored is set.
func String(colored bool) string {
	parts := strings.SplitN(Version, ".", 3)
	palette := []*color.Color{
		color.New(color.FgYellow, color.Bold),
		color.New(color.FgGreen, color.Bold),
		color.New(color.FgBlue, color.Bold),
	}
	for i := range parts {
		if i >= len(palette) {
			break
		}
		if colored {
			palette[i].EnableColor()
		} else {
			palette[i].DisableColor()
		}
		parts[i] = palette[i].Sprint(parts[i])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "aasify %s", strings.Join(parts, "."))
	if GitCommit != "" {
		fmt.Fprintf(&b, " (%s)", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, " built %s", BuildDate)
	}
	fmt.Fprintf(&b, " %s/%s", runtime.GOOS, runtime.GOARCH)
	return b.String()
}
