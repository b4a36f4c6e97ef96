package localstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (creating if needed) the on-device SQLite store.
func Open(cfg Config) (*gorm.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "data/accounts.db"
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create local store directory: %w", err)
			}
		}
	}

	busy := cfg.BusyTimeoutMillis
	if busy <= 0 {
		busy = 5000
	}

	// WAL keeps display-tick reads from blocking behind sync writes.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", path, busy)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// SQLite supports a single writer; keep the pool honest.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return db, nil
}
