package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session store drivers.
const (
	DriverMemory = "memory"
	DriverValkey = "valkey"
	DriverRedis  = "redis"
)

const writeTimeoutMarginSec = 10

// Pixabay accepts per_page values in this range.
const (
	MinPageSize = 3
	MaxPageSize = 200
)

// Config holds the pixsearch configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Pixabay PixabayConfig `yaml:"pixabay"`
	Session SessionConfig `yaml:"session"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// AuthConfig holds API key authentication settings for the JSON API.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty = auth disabled
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// PixabayConfig holds upstream API settings.
type PixabayConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	PageSize        int    `yaml:"page_size"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	MaxAttempts     int    `yaml:"max_attempts"`
	BaseBackoffMs   int    `yaml:"base_backoff_ms"`
	MaxBackoffMs    int    `yaml:"max_backoff_ms"`
	DefaultResetSec int    `yaml:"default_reset_sec"`
}

// Timeout returns the per-attempt HTTP timeout.
func (p PixabayConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// BaseBackoff returns the first backoff ceiling.
func (p PixabayConfig) BaseBackoff() time.Duration {
	return time.Duration(p.BaseBackoffMs) * time.Millisecond
}

// MaxBackoff returns the largest backoff ceiling.
func (p PixabayConfig) MaxBackoff() time.Duration {
	return time.Duration(p.MaxBackoffMs) * time.Millisecond
}

// DefaultReset returns the wait used when a 429 carries no reset header.
func (p PixabayConfig) DefaultReset() time.Duration {
	return time.Duration(p.DefaultResetSec) * time.Second
}

// WorstCaseFetch bounds one page fetch when every attempt is rate limited
// with the default reset and the maximum jitter.
func (p PixabayConfig) WorstCaseFetch() time.Duration {
	if p.MaxAttempts < 1 {
		return p.Timeout()
	}
	waits := time.Duration(p.MaxAttempts-1) * (p.DefaultReset() + p.MaxBackoff())
	return time.Duration(p.MaxAttempts)*p.Timeout() + waits
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	Driver           string   `yaml:"driver"` // memory, valkey, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLMin           int      `yaml:"ttl_min"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TTL returns how long an untouched session is kept.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMin) * time.Minute
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Pixabay.BaseURL == "" {
		c.Pixabay.BaseURL = "https://pixabay.com/api/"
	}
	if c.Pixabay.PageSize == 0 {
		c.Pixabay.PageSize = 15
	}
	if c.Pixabay.TimeoutSec <= 0 {
		c.Pixabay.TimeoutSec = 10
	}
	if c.Pixabay.MaxAttempts == 0 {
		c.Pixabay.MaxAttempts = 4
	}
	if c.Pixabay.BaseBackoffMs <= 0 {
		c.Pixabay.BaseBackoffMs = 500
	}
	if c.Pixabay.MaxBackoffMs <= 0 {
		c.Pixabay.MaxBackoffMs = 8000
	}
	if c.Pixabay.DefaultResetSec <= 0 {
		c.Pixabay.DefaultResetSec = 60
	}
	if c.Session.Driver == "" {
		c.Session.Driver = DriverMemory
	}
	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = "pixsearch:"
	}
	if c.Session.TTLMin <= 0 {
		c.Session.TTLMin = 60
	}
	if c.Session.ReadinessTimeout <= 0 {
		c.Session.ReadinessTimeout = 10
	}
	// Writes may wait out every rate limit reset of a fetch.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = int(c.Pixabay.WorstCaseFetch()/time.Second) + writeTimeoutMarginSec
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Pixabay.APIKey == "" {
		return fmt.Errorf("pixabay.api_key is required")
	}
	if c.Pixabay.PageSize < MinPageSize || c.Pixabay.PageSize > MaxPageSize {
		return fmt.Errorf("pixabay.page_size must be between %d and %d, got %d",
			MinPageSize, MaxPageSize, c.Pixabay.PageSize)
	}
	if c.Pixabay.MaxAttempts < 1 {
		return fmt.Errorf("pixabay.max_attempts must be >= 1, got %d", c.Pixabay.MaxAttempts)
	}
	if c.Pixabay.MaxBackoffMs < c.Pixabay.BaseBackoffMs {
		return fmt.Errorf("pixabay.max_backoff_ms (%d) must be >= base_backoff_ms (%d)",
			c.Pixabay.MaxBackoffMs, c.Pixabay.BaseBackoffMs)
	}
	if worst := c.Pixabay.WorstCaseFetch(); time.Duration(c.HTTP.WriteTimeoutSec)*time.Second < worst {
		return fmt.Errorf("http.write_timeout_sec (%d) must cover a fully rate limited fetch (%s)",
			c.HTTP.WriteTimeoutSec, worst)
	}
	switch c.Session.Driver {
	case DriverMemory:
	case DriverValkey, DriverRedis:
		if len(c.Session.Addrs) == 0 {
			return fmt.Errorf("session.addrs is required for driver %q", c.Session.Driver)
		}
	default:
		return fmt.Errorf("session.driver must be one of memory, valkey, redis, got %q", c.Session.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Explicit override
	if path := os.Getenv("PIXSEARCH_CONFIG"); path != "" {
		return path
	}

	// 2. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 3. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 4. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
