package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage drivers.
const (
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Port          string `env:"PORT,           default=8080"`
	Env           string `env:"ENV,            default=development"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"`
	ControlSecret string `env:"CONTROL_SECRET"`
	StorageDriver string `env:"STORAGE_DRIVER, default=redis"`

	API   APIConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type APIConfig struct {
	BaseURL           string        `env:"API_BASE_URL,             default=http://iatech.runasp.net"`
	Timeout           time.Duration `env:"API_TIMEOUT,              default=15s"`
	RefreshInterval   time.Duration `env:"REFRESH_INTERVAL,         default=5m"`
	CourseConcurrency int           `env:"COURSE_FETCH_CONCURRENCY, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=learner_agent"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageRedis, StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	if c.API.RefreshInterval < time.Second {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 1s")
	}
	if c.API.CourseConcurrency < 1 {
		return fmt.Errorf("COURSE_FETCH_CONCURRENCY must be at least 1")
	}
	return nil
}
