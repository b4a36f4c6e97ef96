// Package config provides configuration management for the account checker.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file (via godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: shared remote MySQL connection details
//   - Local: on-device SQLite store path
//   - Archive: S3/MinIO credentials for the probe-response archive
//   - Sync: reconciliation batch size, delay, and cooldown
//   - Session: resolver thresholds (recency, grace window, KYC)
//   - Pi: third-party mining API endpoint
//   - Tick: scheduler intervals
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
