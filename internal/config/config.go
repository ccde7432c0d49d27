// Package config loads service settings from defaults, an optional config
// file, an optional .env file and CHALKDOC_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

type Config struct {
	Addr string

	StoreDriver   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	MaxCandidates int64
	Workers       int

	RateLimit  int
	RateWindow time.Duration
	CacheTTL   time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "media")
	v.SetDefault("mongo.collection", "topics")
	v.SetDefault("generator.max_candidates", 1_000_000)
	v.SetDefault("generator.workers", 1)
	v.SetDefault("ratelimit.requests", 30)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("cache.ttl", 10*time.Minute)
}

// Load reads the configuration. path names an optional config file (YAML,
// JSON or TOML); when empty only .env, the environment and defaults apply.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CHALKDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Addr:            v.GetString("server.addr"),
		StoreDriver:     strings.ToLower(v.GetString("store.driver")),
		RedisAddr:       v.GetString("redis.addr"),
		RedisPassword:   v.GetString("redis.password"),
		RedisDB:         v.GetInt("redis.db"),
		MongoURI:        v.GetString("mongo.uri"),
		MongoDatabase:   v.GetString("mongo.database"),
		MongoCollection: v.GetString("mongo.collection"),
		MaxCandidates:   v.GetInt64("generator.max_candidates"),
		Workers:         v.GetInt("generator.workers"),
		RateLimit:       v.GetInt("ratelimit.requests"),
		RateWindow:      v.GetDuration("ratelimit.window"),
		CacheTTL:        v.GetDuration("cache.ttl"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverRedis, DriverMongo:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.Addr == "" {
		return errors.New("server address is empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("generator.workers must be positive, got %d", c.Workers)
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("ratelimit.requests must be positive, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("ratelimit.window must be positive, got %s", c.RateWindow)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.CacheTTL)
	}
	return nil
}
