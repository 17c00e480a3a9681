package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"CF_ENV"`
	LogLevel string `mapstructure:"CF_LOG_LEVEL"`
	HTTPAddr string `mapstructure:"CF_HTTP_ADDR"`

	Cache      CacheConfig      `mapstructure:",squash"`
	Redis      RedisConfig      `mapstructure:",squash"`
	Bolt       BoltConfig       `mapstructure:",squash"`
	Ristretto  RistrettoConfig  `mapstructure:",squash"`
	BigCache   BigCacheConfig   `mapstructure:",squash"`
	Repository RepositoryConfig `mapstructure:",squash"`
}

type CacheConfig struct {
	Backend     string        `mapstructure:"CF_CACHE_BACKEND"`  // memory, ristretto, bigcache, bolt, redis
	GenStore    string        `mapstructure:"CF_CACHE_GENSTORE"` // local, redis
	Codec       string        `mapstructure:"CF_CACHE_CODEC"`    // json, cbor, msgpack, protobuf
	Namespace   string        `mapstructure:"CF_CACHE_NAMESPACE"`
	DefaultTTL  time.Duration `mapstructure:"CF_CACHE_DEFAULT_TTL"`
	LoadTimeout time.Duration `mapstructure:"CF_CACHE_LOAD_TIMEOUT"`
	Capacity    uint64        `mapstructure:"CF_CACHE_CAPACITY"` // memory backend; 0 = unbounded
	Disabled    bool          `mapstructure:"CF_CACHE_DISABLED"`
}

type RedisConfig struct {
	URL    string        `mapstructure:"CF_REDIS_URL"`
	Addr   string        `mapstructure:"CF_REDIS_ADDR"`
	GenTTL time.Duration `mapstructure:"CF_REDIS_GEN_TTL"`
}

type BoltConfig struct {
	Path          string        `mapstructure:"CF_BOLT_PATH"`
	SweepInterval time.Duration `mapstructure:"CF_BOLT_SWEEP_INTERVAL"`
}

type RistrettoConfig struct {
	NumCounters int64 `mapstructure:"CF_RISTRETTO_NUM_COUNTERS"`
	MaxCost     int64 `mapstructure:"CF_RISTRETTO_MAX_COST"`
	BufferItems int64 `mapstructure:"CF_RISTRETTO_BUFFER_ITEMS"`
}

type BigCacheConfig struct {
	LifeWindow  time.Duration `mapstructure:"CF_BIGCACHE_LIFE_WINDOW"`
	Shards      int           `mapstructure:"CF_BIGCACHE_SHARDS"`
	HardMaxMB   int           `mapstructure:"CF_BIGCACHE_HARD_MAX_MB"`
	CleanWindow time.Duration `mapstructure:"CF_BIGCACHE_CLEAN_WINDOW"`
}

type RepositoryConfig struct {
	Backend string `mapstructure:"CF_REPO_BACKEND"` // memory, redis
}

var defaults = map[string]any{
	"CF_ENV":                    "dev",
	"CF_LOG_LEVEL":              "",
	"CF_HTTP_ADDR":              ":8080",
	"CF_CACHE_BACKEND":          "memory",
	"CF_CACHE_GENSTORE":         "local",
	"CF_CACHE_CODEC":            "json",
	"CF_CACHE_NAMESPACE":        "products",
	"CF_CACHE_DEFAULT_TTL":      "10m",
	"CF_CACHE_LOAD_TIMEOUT":     "5s",
	"CF_CACHE_CAPACITY":         0,
	"CF_CACHE_DISABLED":         false,
	"CF_REDIS_URL":              "",
	"CF_REDIS_ADDR":             "127.0.0.1:6379",
	"CF_REDIS_GEN_TTL":          "720h",
	"CF_BOLT_PATH":              "cachefront.db",
	"CF_BOLT_SWEEP_INTERVAL":    "1m",
	"CF_RISTRETTO_NUM_COUNTERS": 1_000_000,
	"CF_RISTRETTO_MAX_COST":     64 << 20,
	"CF_RISTRETTO_BUFFER_ITEMS": 64,
	"CF_BIGCACHE_LIFE_WINDOW":   "10m",
	"CF_BIGCACHE_SHARDS":        1024,
	"CF_BIGCACHE_HARD_MAX_MB":   0,
	"CF_BIGCACHE_CLEAN_WINDOW":  "1m",
	"CF_REPO_BACKEND":           "memory",
}

// Load reads .env (when present) and CF_* environment variables.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = gotenv.Load(".env") // vars already set in the environment win
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigType("env")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Cache.GenStore = strings.ToLower(strings.TrimSpace(c.Cache.GenStore))
	c.Cache.Codec = strings.ToLower(strings.TrimSpace(c.Cache.Codec))
	c.Repository.Backend = strings.ToLower(strings.TrimSpace(c.Repository.Backend))
	c.Bolt.Path = strings.TrimSpace(c.Bolt.Path)
}

func (c *Config) validate() error {
	switch c.Env {
	case "dev", "test", "prod":
	default:
		return fmt.Errorf("invalid CF_ENV %q (must be dev, test, or prod)", c.Env)
	}
	switch c.Cache.Backend {
	case "memory", "ristretto", "bigcache", "bolt", "redis":
	default:
		return fmt.Errorf("invalid CF_CACHE_BACKEND %q", c.Cache.Backend)
	}
	switch c.Cache.GenStore {
	case "local", "redis":
	default:
		return fmt.Errorf("invalid CF_CACHE_GENSTORE %q (must be local or redis)", c.Cache.GenStore)
	}
	switch c.Cache.Codec {
	case "json", "cbor", "msgpack", "protobuf":
	default:
		return fmt.Errorf("invalid CF_CACHE_CODEC %q", c.Cache.Codec)
	}
	switch c.Repository.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CF_REPO_BACKEND %q (must be memory or redis)", c.Repository.Backend)
	}
	if c.Cache.Namespace == "" {
		return fmt.Errorf("CF_CACHE_NAMESPACE is required")
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("CF_CACHE_DEFAULT_TTL must not be negative")
	}
	if c.Cache.Backend == "bolt" && c.Bolt.Path == "" {
		return fmt.Errorf("CF_BOLT_PATH is required for the bolt backend")
	}
	if c.Cache.Backend == "bigcache" && c.BigCache.LifeWindow <= 0 {
		return fmt.Errorf("CF_BIGCACHE_LIFE_WINDOW must be positive")
	}
	if c.UsesRedis() && c.Redis.URL == "" && c.Redis.Addr == "" {
		return fmt.Errorf("CF_REDIS_URL or CF_REDIS_ADDR is required")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.Cache.Backend == "redis" || c.Cache.GenStore == "redis" || c.Repository.Backend == "redis"
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
