package reconcile

import "time"

// Config is the wire configuration for the sync engine, loaded from the
// environment by core/config.
type Config struct {
	// BatchSize caps records per remote upsert request.
	BatchSize int `mapstructure:"batch_size" default:"10"`
	// BatchDelayMillis is the pause between remote upsert batches.
	BatchDelayMillis int `mapstructure:"batch_delay_millis" default:"300"`
	// CooldownSeconds is the minimum gap between completed runs.
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"300"`
}

// Options converts the wire configuration into engine options.
func (c Config) Options() Options {
	opts := Options{
		BatchSize: c.BatchSize,
		Cooldown:  time.Duration(c.CooldownSeconds) * time.Second,
	}
	if c.BatchDelayMillis > 0 {
		opts.BatchDelay = time.Duration(c.BatchDelayMillis) * time.Millisecond
	}
	return opts
}
