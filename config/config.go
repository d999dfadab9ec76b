package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Auth tokens
	Auth AuthConfig `mapstructure:"auth"`

	// Redirect cache
	Cache CacheConfig `mapstructure:"cache"`

	// Click worker
	Worker WorkerConfig `mapstructure:"worker"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	TokenTTL  string `mapstructure:"token_ttl"`
}

// TokenTTLDuration parses the configured token lifetime, defaulting to 30m.
func (c AuthConfig) TokenTTLDuration() time.Duration {
	if d, err := time.ParseDuration(c.TokenTTL); err == nil && d > 0 {
		return d
	}
	return 30 * time.Minute
}

type CacheConfig struct {
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
	LookupTimeout string `mapstructure:"lookup_timeout"`
}

// TTL returns the cache entry lifetime, defaulting to one hour.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds > 0 {
		return time.Duration(c.TTLSeconds) * time.Second
	}
	return time.Hour
}

// LookupTimeoutDuration bounds how long a redirect waits on the cache
// before falling through to the database. Defaults to 200ms.
func (c CacheConfig) LookupTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.LookupTimeout); err == nil && d > 0 {
		return d
	}
	return 200 * time.Millisecond
}

type WorkerConfig struct {
	BatchSize     int    `mapstructure:"batch_size"`
	FetchWait     string `mapstructure:"fetch_wait"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// FetchWaitDuration parses the pull-fetch wait, defaulting to 5s.
func (c WorkerConfig) FetchWaitDuration() time.Duration {
	if d, err := time.ParseDuration(c.FetchWait); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET_KEY")
	v.BindEnv("auth.token_ttl", "JWT_TOKEN_TTL")

	// Cache
	v.BindEnv("cache.ttl_seconds", "CACHE_TTL_SECONDS")
	v.BindEnv("cache.lookup_timeout", "CACHE_LOOKUP_TIMEOUT")

	// Worker
	v.BindEnv("worker.batch_size", "WORKER_BATCH_SIZE")
	v.BindEnv("worker.fetch_wait", "WORKER_FETCH_WAIT")
	v.BindEnv("worker.retention_days", "WORKER_RETENTION_DAYS")
}
