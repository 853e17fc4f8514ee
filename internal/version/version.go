package version

// Version is the cdfx release, overridden at build time with
// -ldflags "-X github.com/cdf-forge/cdfx/internal/version.Version=...".
var Version = "0.3.0-dev"
