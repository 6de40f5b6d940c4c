// Package version exposes the build identity the release pipeline stamps in
// with -ldflags "-X". The defaults mark an unstamped local build.
package version

//nolint:revive // Overwritten at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
