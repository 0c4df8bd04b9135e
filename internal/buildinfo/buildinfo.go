// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/upinformatica/prenotabot/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/upinformatica/prenotabot/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/upinformatica/prenotabot/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release is the Sentry release string, "version (commit)" when both
// are set.
func Release() string {
	switch {
	case Version != "" && Commit != "":
		return Version + " (" + Commit + ")"
	case Version != "":
		return Version
	default:
		return Commit
	}
}
