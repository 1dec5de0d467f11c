// Package server holds the HTTP server configuration.
//
// While the serve command handles the server startup, this package defines the
// configuration structure for server settings.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key, the graceful shutdown bound
// and the path metrics are served on.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by cmd/serve.go to start the listener.
package server
