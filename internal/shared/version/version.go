package version

// Version is overridden at build time with -ldflags "-X baseline/internal/shared/version.Version=...".
var Version = "dev"
