// Package config centralises configuration parsing for the exercise tracker.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Loads a .env file from the working directory, if present.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config captures runtime configuration values.
type Config struct {
	StoreURI           string        `koanf:"mongo_uri"`
	Database           string        `koanf:"mongo_database" validate:"required"`
	Port               string        `koanf:"port" validate:"required,numeric"`
	LogLevel           string        `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	StaticDir          string        `koanf:"static_dir" validate:"required"`
	ViewsDir           string        `koanf:"views_dir" validate:"required"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins" validate:"required,min=1"`
	KafkaBrokers       []string      `koanf:"kafka_brokers"`
	EventsTopicPrefix  string        `koanf:"events_topic_prefix" validate:"required"`
	StoreTimeout       time.Duration `koanf:"store_timeout" validate:"gt=0"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MetricsEnabled     bool          `koanf:"metrics_enabled"`
}

// HTTPAddress is the listen address derived from Port.
func (c Config) HTTPAddress() string {
	return ":" + c.Port
}

// Default returns the configuration used for anything the environment leaves
// unset.
func Default() Config {
	return Config{
		Database:           "exercise_tracker",
		Port:               "3000",
		LogLevel:           "info",
		StaticDir:          "public",
		ViewsDir:           "views",
		CORSAllowedOrigins: []string{"*"},
		EventsTopicPrefix:  "exercise_tracker",
		StoreTimeout:       10 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		MetricsEnabled:     true,
	}
}

var keys = map[string]struct{}{
	"mongo_uri":            {},
	"mongo_database":       {},
	"port":                 {},
	"log_level":            {},
	"static_dir":           {},
	"views_dir":            {},
	"cors_allowed_origins": {},
	"kafka_brokers":        {},
	"events_topic_prefix":  {},
	"store_timeout":        {},
	"shutdown_timeout":     {},
	"metrics_enabled":      {},
}

// Load reads the process environment over Default and validates the result.
func Load() (Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := keys[key]; !ok {
			return ""
		}
		if strings.TrimSpace(os.Getenv(s)) == "" {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitAndTrim(cfg.CORSAllowedOrigins)
	cfg.KafkaBrokers = splitAndTrim(cfg.KafkaBrokers)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func splitAndTrim(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
