package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultConfigPath is consulted when TASKBOARD_CONFIG is not set.
const DefaultConfigPath = "taskboard.toml"

// Config keeps runtime settings for the server. It is built once at
// startup and passed into constructors explicitly.
type Config struct {
	Addr         string
	DatabaseURL  string
	AuthKey      string
	PollInterval time.Duration
}

// fileConfig is the TOML shape of the optional config file.
type fileConfig struct {
	Addr                string `toml:"addr"`
	DatabaseURL         string `toml:"database_url"`
	AuthKey             string `toml:"auth_key"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// Load reads the optional TOML config file, applies environment variables
// on top, and validates the result. Missing required fields fail here, at
// startup, not on first use.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("TASKBOARD_CONFIG")))
}

// LoadFile is Load with an explicit config file path. An empty path falls
// back to DefaultConfigPath when that file exists.
func LoadFile(path string) (Config, error) {
	var fc fileConfig
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Addr:         fc.Addr,
		DatabaseURL:  fc.DatabaseURL,
		AuthKey:      fc.AuthKey,
		PollInterval: time.Duration(fc.PollIntervalSeconds) * time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("TASKBOARD_ADDR")); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("AUTH_KEY")); v != "" {
		cfg.AuthKey = v
	}
	if v := strings.TrimSpace(os.Getenv("POLL_INTERVAL_SECONDS")); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("POLL_INTERVAL_SECONDS must be a positive integer, got %q", v)
		}
		cfg.PollInterval = time.Duration(seconds) * time.Second
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8787"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskboard.db"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	if cfg.AuthKey == "" {
		return cfg, fmt.Errorf("AUTH_KEY is required")
	}

	return cfg, nil
}
