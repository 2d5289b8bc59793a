// Package config provides configuration loading and validation for the
// matching service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/daniel/expert-match/internal/admission"
)

// Config represents the service configuration. Values can come from a
// JSON file, environment variables, or CLI flags; missing values use
// defaults.
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`
	JWTSecret   string `json:"jwt_secret,omitempty"`
	AuthEnabled bool   `json:"auth_enabled,omitempty"`

	// Backends
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	GraphName   string `json:"graph_name,omitempty"`   // Apache AGE graph name
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key

	// Scoring
	Workers int `json:"workers,omitempty"` // Concurrent scoring tasks per request

	// Admission control
	Limits admission.Limits `json:"limits,omitempty"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		Port:      8080,
		GraphName: "medical_graph",
		Workers:   8,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// LoadEnv overlays environment variables onto the config. A .env file
// in the working directory is loaded first if present.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("GRAPH_NAME"); v != "" {
		c.GraphName = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
		c.AuthEnabled = true
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required")
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return fmt.Errorf("config error: 'jwt_secret' is required when auth is enabled")
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.GraphName == "" {
		result.GraphName = defaults.GraphName
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	return result
}
