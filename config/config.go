package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/logging"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config describes everything the server needs at startup.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig controls the HTTP listener and the extraction rate limit.
type ServerConfig struct {
	Address string `yaml:"address"`
	// RateLimit is the sustained number of extractions per second; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver     string      `yaml:"driver"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// CredentialsConfig names the provider that may fall back to an ambient key.
// The key itself is only ever read from the environment.
type CredentialsConfig struct {
	DefaultProvider string `yaml:"default_provider"`
	Default         string `yaml:"-"`
}

// ProvidersConfig holds per-provider client settings.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// ProviderConfig tunes a provider client.
type ProviderConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ambientKeyEnv maps the default provider to the environment variable that
// carries its ambient credential.
var ambientKeyEnv = map[core.Provider]string{
	core.ProviderOpenAI:    "OPENAI_API_KEY",
	core.ProviderAnthropic: "ANTHROPIC_API_KEY",
	core.ProviderGemini:    "GEMINI_API_KEY",
}

// AmbientKeyEnv returns the environment variable read for provider's
// ambient credential.
func AmbientKeyEnv(provider core.Provider) string { return ambientKeyEnv[provider] }

// Default returns a configuration with every default applied and no
// environment overrides.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load parses the YAML file at path (if non-empty), applies defaults and
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8001"
	}

	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		c.Server.RateBurst = int(c.Server.RateLimit)
		if c.Server.RateBurst < 1 {
			c.Server.RateBurst = 1
		}
	}

	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}

	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/llmbridge.db"
	}

	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "llmbridge"
	}

	if c.Credentials.DefaultProvider == "" {
		c.Credentials.DefaultProvider = core.ProviderOpenAI.String()
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("LLMBRIDGE_ADDR"); v != "" {
		c.Server.Address = v
	}

	if v := getenv("LLMBRIDGE_STORE"); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}

	if v := getenv("LLMBRIDGE_SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}

	if v := getenv("LLMBRIDGE_REDIS_ADDR"); v != "" {
		c.Store.Redis.Address = v
	}

	if v := getenv("LLMBRIDGE_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LLMBRIDGE_RATE_LIMIT %q: %w", v, err)
		}
		c.Server.RateLimit = rps
		if c.Server.RateBurst <= 0 {
			c.Server.RateBurst = max(1, int(rps))
		}
	}

	if v := getenv("LLMBRIDGE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if env := ambientKeyEnv[core.Provider(c.Credentials.DefaultProvider)]; env != "" {
		c.Credentials.Default = strings.TrimSpace(getenv(env))
	}

	return nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := core.ParseProvider(c.Credentials.DefaultProvider); err != nil {
		errs = append(errs, fmt.Errorf("credentials.default_provider: %w", err))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	case DriverRedis:
		if c.Store.Redis.Address == "" {
			errs = append(errs, errors.New("store.redis.address is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format: must be json or text, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// DefaultProvider returns the parsed default provider. Validate must have passed.
func (c *Config) DefaultProvider() core.Provider {
	return core.Provider(c.Credentials.DefaultProvider)
}
