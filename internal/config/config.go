package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// DefaultPath is the config file used when none is given and it exists.
const DefaultPath = "configs/moviedeck.yaml"

// Config represents the main application configuration
type Config struct {
	// Catalog upstream
	TMDb TMDbConfig `yaml:"tmdb"`

	// Application settings
	App AppConfig `yaml:"app"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty"`
	ImageBaseURL      string        `yaml:"image_base_url,omitempty"`
	Language          string        `yaml:"language,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	MaxAttempts       int           `yaml:"max_attempts,omitempty"`        // 1 = no retry
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"` // 0 = unlimited
}

// AppConfig holds application-level settings
type AppConfig struct {
	URL      string `yaml:"url"`       // public base URL used for share links
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
	LogFile  string `yaml:"log_file"`  // where interactive commands write logs
	DataDir  string `yaml:"data_dir"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// Defaults applied by setDefaults.
const (
	defaultTMDbBaseURL  = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
	defaultAppURL       = "http://localhost:3000"
	defaultTimeout      = 15 * time.Second
)

// ResolvePath returns the config file to load: the explicit path if set,
// otherwise DefaultPath when it exists, otherwise "" (environment only).
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if info, err := os.Stat(DefaultPath); err == nil && !info.IsDir() {
		return DefaultPath
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable overrides.
// An empty path skips the file and builds the configuration from the
// environment and defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := validateConfigPath(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// validateConfigPath checks that path names a readable regular file.
func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() error {
	// TMDb
	if v := firstEnv("MOVIEDECK_TMDB_API_KEY", "TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("MOVIEDECK_TMDB_LANGUAGE"); v != "" {
		c.TMDb.Language = v
	}

	// Telegram
	c.Telegram = applyTelegramEnv(c.Telegram, "MOVIEDECK_TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("MOVIEDECK_TELEGRAM_ALLOWED_USER_IDS"); v != "" && c.Telegram != nil {
		ids, err := ParseUserIDs(v)
		if err != nil {
			return fmt.Errorf("MOVIEDECK_TELEGRAM_ALLOWED_USER_IDS: %w", err)
		}
		c.Telegram.AllowedUserIDs = ids
	}

	// App
	if v := os.Getenv("MOVIEDECK_APP_URL"); v != "" {
		c.App.URL = v
	}
	if v := os.Getenv("MOVIEDECK_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("MOVIEDECK_DATA_DIR"); v != "" {
		c.App.DataDir = v
	}
	return nil
}

// firstEnv returns the value of the first set variable in keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// applyTelegramEnv applies the token override, creating the section when the
// variable is set and the file had none.
func applyTelegramEnv(tc *TelegramConfig, tokenKey string) *TelegramConfig {
	v := os.Getenv(tokenKey)
	if v == "" {
		return tc
	}
	if tc == nil {
		tc = &TelegramConfig{}
	}
	tc.BotToken = v
	return tc
}

// setDefaults fills zero values. Negative numbers are left for Validate to reject.
func (c *Config) setDefaults() {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = defaultTMDbBaseURL
	}
	if c.TMDb.ImageBaseURL == "" {
		c.TMDb.ImageBaseURL = defaultImageBaseURL
	}
	if c.TMDb.Timeout == 0 {
		c.TMDb.Timeout = defaultTimeout
	}
	if c.TMDb.MaxAttempts == 0 {
		c.TMDb.MaxAttempts = 1
	}

	if c.App.URL == "" {
		c.App.URL = defaultAppURL
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.App.DataDir = filepath.Join(homeDir, ".moviedeck")
		} else {
			c.App.DataDir = ".moviedeck"
		}
	}
	if c.App.LogFile == "" {
		c.App.LogFile = filepath.Join(c.App.DataDir, "moviedeck.log")
	}
}

var validLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate validates the configuration. A missing API key is not an error;
// see Warnings.
func (c *Config) Validate() error {
	if err := validateURL(c.TMDb.BaseURL, "tmdb.base_url"); err != nil {
		return err
	}
	if err := validateURL(c.TMDb.ImageBaseURL, "tmdb.image_base_url"); err != nil {
		return err
	}
	if c.TMDb.Timeout < 0 {
		return fmt.Errorf("tmdb.timeout must not be negative")
	}
	if c.TMDb.MaxAttempts < 1 {
		return fmt.Errorf("tmdb.max_attempts must be at least 1")
	}
	if c.TMDb.RequestsPerSecond < 0 {
		return fmt.Errorf("tmdb.requests_per_second must not be negative")
	}

	if err := validateURL(c.App.URL, "app.url"); err != nil {
		return err
	}
	if !isValidLogLevel(c.App.LogLevel) {
		return fmt.Errorf("app.log_level must be one of %s, got %q",
			strings.Join(validLogLevels, ", "), c.App.LogLevel)
	}

	if c.Telegram != nil {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required")
		}
		for _, id := range c.Telegram.AllowedUserIDs {
			if id <= 0 {
				return fmt.Errorf("telegram.allowed_user_ids must be positive, got %d", id)
			}
		}
	}
	return nil
}

// Warnings lists non-fatal configuration problems.
func (c *Config) Warnings() []string {
	var w []string
	if c.TMDb.APIKey == "" {
		w = append(w, "tmdb.api_key is not set (MOVIEDECK_TMDB_API_KEY); catalog requests will be rejected upstream")
	}
	if c.Telegram != nil && len(c.Telegram.AllowedUserIDs) == 0 {
		w = append(w, "telegram.allowed_user_ids is empty; the bot will answer anyone")
	}
	return w
}

func isValidLogLevel(level string) bool {
	level = strings.ToLower(level)
	for _, l := range validLogLevels {
		if l == level {
			return true
		}
	}
	return false
}

// validateURL checks that raw is an absolute http(s) URL with a host.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing host", field)
	}
	return nil
}

// ParseUserIDs parses a comma-separated list of Telegram user ids.
func ParseUserIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
