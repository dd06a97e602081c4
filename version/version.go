package version

// Version is the current hashvet release. Overridden at build time via
// -ldflags "-X hashvet/version.Version=...".
var Version = "0.3.0"
