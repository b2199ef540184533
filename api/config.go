// Package api provides the HTTP API server for the food assistant and the
// ingredient store.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":3000")
	ListenAddr string

	// StorageDriver names the ingredient store backend reported by the
	// health check (e.g., "postgres").
	StorageDriver string

	// Provider names the chat provider reported by the health check.
	Provider string
}
