package config

import (
	"reflect"
	"strings"

	"pi-account-checker/core/archive"
	"pi-account-checker/core/database"
	"pi-account-checker/core/localstore"
	"pi-account-checker/core/logger"
	"pi-account-checker/core/reconcile"
	"pi-account-checker/core/server"
	"pi-account-checker/core/session"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the shared remote database.
	Database database.Config `mapstructure:"database"`
	// Local holds configuration for the on-device store.
	Local localstore.Config `mapstructure:"local"`
	// Archive holds configuration for the probe-response archive.
	Archive archive.Config `mapstructure:"archive"`
	// Sync holds configuration for the reconciliation engine.
	Sync reconcile.Config `mapstructure:"sync"`
	// Session holds the resolver thresholds.
	Session session.Settings `mapstructure:"session"`
	// Pi holds configuration for the third-party mining API.
	Pi PiConfig `mapstructure:"pi"`
	// Tick holds the scheduler intervals.
	Tick TickConfig `mapstructure:"tick"`
}

// PiConfig holds configuration for the external mining/session API.
type PiConfig struct {
	// BaseURL is the root of the third-party REST API.
	BaseURL string `mapstructure:"base_url" default:"https://socialchain.app/api"`
	// TimeoutSeconds bounds each probe call so a slow remote cannot park
	// a worker indefinitely.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// TickConfig holds the periodic scheduler intervals.
type TickConfig struct {
	// DisplaySeconds is the status re-resolve interval.
	DisplaySeconds int `mapstructure:"display_seconds" default:"1"`
	// SyncMinutes is the background reconciliation interval.
	SyncMinutes int `mapstructure:"sync_minutes" default:"30"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
