// Package version exposes build metadata. Values are overridden at build time:
//
//	go build -ldflags "-X github.com/ndewijer/DCA-Backtester-Backend/internal/version.Version=1.2.0"
package version

// Version is the application version.
var Version = "dev"

// Commit is the git commit the binary was built from.
var Commit = "unknown"
