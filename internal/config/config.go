// Package config loads client, storage and mock-backend settings from
// defaults, an optional YAML file, an optional .env file and the environment,
// in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production API.
const DefaultBaseURL = "https://kaia.loophole.site"

// FallbackPolicy selects how admin settings react to failures.
type FallbackPolicy string

const (
	// FallbackLocal answers load/save failures with locally synthesized values.
	FallbackLocal FallbackPolicy = "local"
	// FallbackStrict surfaces failures like every other resource.
	FallbackStrict FallbackPolicy = "strict"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config is the full runtime configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	MockAPI MockAPIConfig `yaml:"mockapi"`

	AdminSettingsFallback FallbackPolicy `yaml:"admin_settings_fallback" env:"KAIA_ADMIN_SETTINGS_FALLBACK"`
}

// APIConfig configures the remote API transport.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" env:"KAIA_API_BASE_URL"`
	Timeout        time.Duration `yaml:"timeout" env:"KAIA_HTTP_TIMEOUT"`
	MaxRetries     int           `yaml:"max_retries" env:"KAIA_HTTP_MAX_RETRIES"`
	Resilience     bool          `yaml:"resilience" env:"KAIA_HTTP_RESILIENCE"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env:"KAIA_RATE_LIMIT_RPS"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"KAIA_RATE_LIMIT_BURST"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level" env:"KAIA_LOG_LEVEL"`
	Format string `yaml:"format" env:"KAIA_LOG_FORMAT"`
}

// StorageConfig selects and configures the session storage backend.
type StorageConfig struct {
	Backend       string `yaml:"backend" env:"KAIA_STORAGE"`
	Path          string `yaml:"path" env:"KAIA_STORAGE_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"KAIA_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"KAIA_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"KAIA_REDIS_DB"`
	RedisPrefix   string `yaml:"redis_prefix" env:"KAIA_REDIS_PREFIX"`
	PostgresDSN   string `yaml:"postgres_dsn" env:"KAIA_POSTGRES_DSN"`
}

// MockAPIConfig configures the development backend.
type MockAPIConfig struct {
	Addr           string `yaml:"addr" env:"KAIA_MOCKAPI_ADDR"`
	JWTSecret      string `yaml:"jwt_secret" env:"KAIA_MOCKAPI_JWT_SECRET"`
	AllowedOrigins string `yaml:"allowed_origins" env:"KAIA_MOCKAPI_ALLOWED_ORIGINS"`
}

// Origins splits AllowedOrigins on commas.
func (m MockAPIConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(m.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			Timeout:        15 * time.Second,
			MaxRetries:     2,
			RateLimitBurst: 1,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Backend:     StorageMemory,
			Path:        defaultStoragePath(),
			RedisPrefix: "kaia:",
		},
		MockAPI: MockAPIConfig{
			Addr:      ":8089",
			JWTSecret: "kaia-dev-secret",
		},
		AdminSettingsFallback: FallbackLocal,
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".kaia-session.json"
	}
	return dir + string(os.PathSeparator) + "kaia" + string(os.PathSeparator) + "session.json"
}

// Load builds the configuration. yamlPath and envFile are optional; an
// explicitly named YAML file must exist, a missing .env file is ignored.
func Load(yamlPath, envFile string) (*Config, error) {
	cfg := Default()

	if yamlPath != "" {
		if err := cfg.loadYAML(yamlPath); err != nil {
			return nil, err
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.AdminSettingsFallback = FallbackPolicy(strings.ToLower(strings.TrimSpace(string(c.AdminSettingsFallback))))
	if c.AdminSettingsFallback == "" {
		c.AdminSettingsFallback = FallbackLocal
	}
	if c.API.RateLimitBurst <= 0 {
		c.API.RateLimitBurst = 1
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base url %q is invalid", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api base url scheme %q is not supported", u.Scheme)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("http max retries must not be negative")
	}
	if c.API.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file backend")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("postgres dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.AdminSettingsFallback {
	case FallbackLocal, FallbackStrict:
	default:
		return fmt.Errorf("unknown admin settings fallback policy %q", c.AdminSettingsFallback)
	}
	return nil
}
