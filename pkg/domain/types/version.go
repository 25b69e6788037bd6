package types

// Version is the application version, overridden at build time with -ldflags
var Version = "dev"

// ServiceName is reported by the health endpoint and used in status contexts
const ServiceName = "lintgate"
