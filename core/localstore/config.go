package localstore

// Config holds configuration for the on-device store.
type Config struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `mapstructure:"path" default:"data/accounts.db"`
	// BusyTimeoutMillis bounds how long a write waits on the single
	// SQLite writer before failing.
	BusyTimeoutMillis int `mapstructure:"busy_timeout_millis" default:"5000"`
}
