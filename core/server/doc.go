// Package server holds the HTTP server configuration.
//
// While the start command handles the actual server startup, this package
// defines the configuration structure for server settings, such as the
// listen port and the API key protecting the dashboard endpoints.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server
// settings and by the auth middleware to decide whether requests must carry
// the API key.
package server
