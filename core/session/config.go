package session

import "time"

// Settings is the wire configuration for the resolver thresholds, loaded
// from the environment by core/config. The observed production values are
// the defaults; see Config for what each threshold means.
type Settings struct {
	RecencyWindowMinutes int `mapstructure:"recency_window_minutes" default:"60"`
	GraceWindowHours     int `mapstructure:"grace_window_hours" default:"24"`
	KYCSessionThreshold  int `mapstructure:"kyc_session_threshold" default:"30"`
}

// Config converts the wire settings into resolver thresholds, falling back
// to the defaults for unset values.
func (s Settings) Config() Config {
	cfg := DefaultConfig()
	if s.RecencyWindowMinutes > 0 {
		cfg.RecencyWindow = time.Duration(s.RecencyWindowMinutes) * time.Minute
	}
	if s.GraceWindowHours > 0 {
		cfg.GraceWindow = time.Duration(s.GraceWindowHours) * time.Hour
	}
	if s.KYCSessionThreshold > 0 {
		cfg.KYCSessionThreshold = s.KYCSessionThreshold
	}
	return cfg
}
