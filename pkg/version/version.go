// Package version provides the cribo-go tool version.
package version

// Version is the cribo-go tool version.
// Can be overridden at build time with:
//
//	go build -ldflags "-X github.com/go-cribo/cribo/pkg/version.Version=1.2.3"
var Version = "dev"
