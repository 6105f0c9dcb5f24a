package version

// Version is the current version of the videocall binaries.
// This value can be overridden at build time using:
//
//	go build -ldflags="-X 'github.com/ImanSamantaCoder/Video-calling-APP/internal/version.Version=v1.0.0'"
var Version = "dev"
