package config

// Version is the revisor binary version.
// Set at build time via: -ldflags "-X github.com/deptdocs/revisor/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
