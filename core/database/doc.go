// Package database handles the shared remote database connection.
//
// It provides a wrapper around GORM to properly configure the MySQL
// connection the reconciler treats as the remote store: the database all
// devices mirror their per-account state into.
//
// # Connect
//
// Connect establishes the connection with explicit setup and I/O timeouts,
// since the remote database sits behind an unknown WAN latency. The remote
// side is optional; a failed connection leaves the dashboard in local-only
// mode.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Remote database unavailable, local-only mode", err)
//	}
package database
