// Package version holds build-time version metadata, stamped via
// -ldflags at build time, following the teacher's version package
// pattern for its own --version output.
package version

// These are overridden via -ldflags "-X github.com/jsr-io/jsr-publish/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String renders the full version line printed by `jsrpublish --version`.
func String() string {
	return Version + " (commit " + GitCommit + ", built " + BuildDate + ")"
}
