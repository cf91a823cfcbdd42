// Package version carries the build fingerprints stamped into the
// machq binary.
package version

import "github.com/fatih/color"

// Stamped at build time via
// -ldflags "-X machq/internal/version.GitCommit=...".
var (
	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Version is the semantic version of the CLI, each component painted
// its own color when the terminal supports it.
var Version = paint(color.FgCyan, "0") + "." + paint(color.FgGreen, "1") + "." + paint(color.FgMagenta, "0") + "-dev"

func paint(attr color.Attribute, s string) string {
	return color.New(attr, color.Bold).Sprint(s)
}
