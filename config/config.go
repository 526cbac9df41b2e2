// Package config provides configuration management for the collection fixture.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file read when FIXTURE_CONFIG is unset.
const DefaultFile = "config.json"

// Config holds the complete fixture configuration.
type Config struct {
	Data DataConfig `yaml:"Data"`
	Log  LogConfig  `yaml:"Log"`
}

// DataConfig holds MongoDB configuration.
type DataConfig struct {
	// ConnectionString is required. It is left blank when neither the file
	// nor MONGODB_URI supply one, and the fixture reports that on first connect.
	ConnectionString string `yaml:"ConnectionString"`
	// DatabaseName is a candidate only; the fixture falls back to "Testing" when blank.
	DatabaseName string `yaml:"DatabaseName"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `yaml:"Level"`
	Pretty bool   `yaml:"Pretty"`
}

// Load reads the configuration file named by FIXTURE_CONFIG (or config.json)
// and applies environment overrides on top of it. A missing file is not an error.
func Load() (Config, error) {
	return LoadFile(getEnv("FIXTURE_CONFIG", DefaultFile))
}

// LoadFile reads configuration from path and applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{Level: "info"},
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		// yaml.v3 accepts JSON documents as well.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Data.ConnectionString = getEnv("MONGODB_URI", cfg.Data.ConnectionString)
	cfg.Data.DatabaseName = getEnv("MONGODB_DATABASE", cfg.Data.DatabaseName)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = getEnvBool("LOG_PRETTY", cfg.Log.Pretty)
	return cfg, nil
}

// Value looks up a colon separated key such as "Data:ConnectionString".
// Unknown keys return an empty string.
func (c Config) Value(key string) string {
	switch strings.ToLower(key) {
	case "data:connectionstring":
		return c.Data.ConnectionString
	case "data:databasename":
		return c.Data.DatabaseName
	case "log:level":
		return c.Log.Level
	case "log:pretty":
		return strconv.FormatBool(c.Log.Pretty)
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
