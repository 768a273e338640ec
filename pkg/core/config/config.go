// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     config
// Description: TOML configuration with environment overrides
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvConfigPath names the variable that points at the config file
const EnvConfigPath = "RECHENWERK_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Calculator CalculatorConfig `toml:"calculator"`
	Model      ModelConfig      `toml:"model"`
	Server     ServerConfig     `toml:"server"`
	Journal    JournalConfig    `toml:"journal"`
	Dataset    DatasetConfig    `toml:"dataset"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment" env:"RECHENWERK_ENV"`
	DataDir     string `toml:"data_dir" env:"RECHENWERK_DATA_DIR"`
	LogLevel    string `toml:"log_level" env:"RECHENWERK_LOG_LEVEL"`
	LogFormat   string `toml:"log_format" env:"RECHENWERK_LOG_FORMAT"`
}

// CalculatorConfig holds accumulator settings
type CalculatorConfig struct {
	Precision    int    `toml:"precision" env:"RECHENWERK_PRECISION"`
	MaxMagnitude string `toml:"max_magnitude" env:"RECHENWERK_MAX_MAGNITUDE"`
}

// ModelConfig holds the model backend configuration
type ModelConfig struct {
	Provider    string   `toml:"provider"`
	Name        string   `toml:"name" env:"RECHENWERK_MODEL"`
	BaseURL     string   `toml:"base_url" env:"RECHENWERK_OLLAMA_URL"`
	Temperature float64  `toml:"temperature" env:"RECHENWERK_TEMPERATURE"`
	MaxTokens   int      `toml:"max_tokens"`
	Timeout     Duration `toml:"timeout" env:"RECHENWERK_MODEL_TIMEOUT"`
}

// ServerConfig holds HTTP/WebSocket server configuration
type ServerConfig struct {
	Host           string   `toml:"host" env:"RECHENWERK_HOST"`
	Port           int      `toml:"port" env:"RECHENWERK_PORT"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	AllowedOrigins []string `toml:"allowed_origins" env:"RECHENWERK_ALLOWED_ORIGINS" envSeparator:","`
}

// JournalConfig holds the SQLite journal configuration
type JournalConfig struct {
	Enabled bool   `toml:"enabled" env:"RECHENWERK_JOURNAL_ENABLED"`
	Path    string `toml:"path" env:"RECHENWERK_JOURNAL"`
}

// DatasetConfig holds training data generation settings
type DatasetConfig struct {
	Templates string `toml:"templates"`
	Output    string `toml:"output"`
	Count     int    `toml:"count"`
	Seed      uint64 `toml:"seed"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := seed()
	cfg.applyDefaults()
	return cfg
}

// seed holds the defaults whose zero value is meaningful and therefore cannot
// be filled in by applyDefaults
func seed() *Config {
	return &Config{
		Calculator: CalculatorConfig{Precision: 2},
		Journal:    JournalConfig{Enabled: true},
		Dataset:    DatasetConfig{Seed: 42},
	}
}

// Load loads configuration from a TOML file. Keys missing from the file keep
// their defaults; environment variables override both.
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := seed()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return finish(cfg)
}

// LoadFromEnv loads configuration from the RECHENWERK_CONFIG environment
// variable or one of the default locations. Without a file the built-in
// defaults are used.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = findDefaultPath()
	}

	if path == "" {
		return finish(seed())
	}

	return Load(path)
}

// DefaultPaths lists the locations searched when RECHENWERK_CONFIG is unset
func DefaultPaths() []string {
	paths := []string{
		"./configs/config.toml",
		"./config.toml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rechenwerk", "config.toml"))
	}
	return paths
}

func findDefaultPath() string {
	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func finish(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "meinRECHENWERK"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Calculator
	if c.Calculator.MaxMagnitude == "" {
		c.Calculator.MaxMagnitude = "1000"
	}

	// Model
	if c.Model.Provider == "" {
		c.Model.Provider = "ollama"
	}
	if c.Model.Name == "" {
		c.Model.Name = "functiongemma"
	}
	if c.Model.BaseURL == "" {
		c.Model.BaseURL = "http://localhost:11434"
	}
	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = 200
	}
	if c.Model.Timeout.Duration == 0 {
		c.Model.Timeout.Duration = 120 * time.Second
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9300
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}

	// Journal
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(c.General.DataDir, "journal.db")
	}

	// Dataset
	if c.Dataset.Output == "" {
		c.Dataset.Output = filepath.Join(c.General.DataDir, "dataset.jsonl")
	}
	if c.Dataset.Count == 0 {
		c.Dataset.Count = 1000
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Journal.Path = os.ExpandEnv(c.Journal.Path)
	c.Dataset.Templates = os.ExpandEnv(c.Dataset.Templates)
	c.Dataset.Output = os.ExpandEnv(c.Dataset.Output)
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if c.Calculator.Precision < 0 {
		return fmt.Errorf("calculator.precision must not be negative, got %d", c.Calculator.Precision)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Model.Temperature < 0 {
		return fmt.Errorf("model.temperature must not be negative, got %v", c.Model.Temperature)
	}
	if c.Dataset.Count < 0 {
		return fmt.Errorf("dataset.count must not be negative, got %d", c.Dataset.Count)
	}
	switch strings.ToLower(c.General.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("general.log_format must be json or text, got %q", c.General.LogFormat)
	}
	return nil
}

// ServerAddress returns the listen address of the HTTP server
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
