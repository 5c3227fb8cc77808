// Package version provides build version information for serving
// endpoints to report on their info route.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/docpack/pipekit/version.Version=1.0.0"
package version
