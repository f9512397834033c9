package todoapi

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

const (
	DefaultConfigFile = "todoapi.toml"
	envPrefix         = "TODOAPI_"
)

// Config holds application configuration.
type Config struct {
	// Server configuration
	ServerPort      string   `toml:"port"`
	PathPrefix      string   `toml:"prefix"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	// DefaultLimit is the page size used when a list request has no limit.
	DefaultLimit int  `toml:"default_limit"`
	ReadOnly     bool `toml:"read_only"` // When true, all write operations are rejected

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	LogPretty bool   `toml:"log_pretty"`

	// FeedBuffer is the number of notifications queued per live subscriber
	// before further ones are dropped for it.
	FeedBuffer int `toml:"feed_buffer"`
}

// Duration is a time.Duration written as text ("5s") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		ServerPort:      "8000",
		PathPrefix:      "/api",
		ShutdownTimeout: Duration{5 * time.Second},
		DefaultLimit:    10,
		LogLevel:        "info",
		FeedBuffer:      16,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("port must not be empty")
	}
	if c.PathPrefix != "" && !strings.HasPrefix(c.PathPrefix, "/") {
		return fmt.Errorf("invalid prefix %q: must start with /", c.PathPrefix)
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("invalid default limit %d: must be at least 1", c.DefaultLimit)
	}
	if c.FeedBuffer < 1 {
		return fmt.Errorf("invalid feed buffer %d: must be at least 1", c.FeedBuffer)
	}
	if c.ShutdownTimeout.Duration < 0 {
		return fmt.Errorf("invalid shutdown timeout %s", c.ShutdownTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func loadConfigFile(config *Config, path string) error {
	_, err := toml.DecodeFile(path, config)
	return err
}

// loadFromEnv overrides config from TODOAPI_* environment variables.
func loadFromEnv(config *Config) error {
	config.ServerPort = getEnv(envPrefix+"PORT", config.ServerPort)
	config.PathPrefix = getEnv(envPrefix+"PREFIX", config.PathPrefix)
	config.LogLevel = getEnv(envPrefix+"LOG_LEVEL", config.LogLevel)
	config.LogFile = getEnv(envPrefix+"LOG_FILE", config.LogFile)

	var err error
	if config.DefaultLimit, err = getEnvInt(envPrefix+"DEFAULT_LIMIT", config.DefaultLimit); err != nil {
		return err
	}
	if config.FeedBuffer, err = getEnvInt(envPrefix+"FEED_BUFFER", config.FeedBuffer); err != nil {
		return err
	}
	if config.ReadOnly, err = getEnvBool(envPrefix+"READ_ONLY", config.ReadOnly); err != nil {
		return err
	}
	if config.LogPretty, err = getEnvBool(envPrefix+"LOG_PRETTY", config.LogPretty); err != nil {
		return err
	}
	if v := os.Getenv(envPrefix + "SHUTDOWN_TIMEOUT"); v != "" {
		if err := config.ShutdownTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", envPrefix, err)
		}
	}
	return nil
}

// getEnv returns the variable's value, or defaultValue when it is unset or
// empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
