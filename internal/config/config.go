package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration is the full runtime configuration, loaded once at startup.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
}

type DeploymentConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ClickHouseConfig struct {
	Address  string `mapstructure:"address"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	UseTLS   bool          `mapstructure:"use_tls"`
	PoolSize int           `mapstructure:"pool_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"`
}

// AnalyticsConfig tunes the churn analytics pipeline.
type AnalyticsConfig struct {
	// MaxBucketsPerPage caps grouped-query result pages from the event index.
	MaxBucketsPerPage int `mapstructure:"max_buckets_per_page"`
	// StableAfterDays is how old a window's end date must be before its
	// result is considered settled and cacheable.
	StableAfterDays int `mapstructure:"stable_after_days"`
}

// NewConfig loads configuration from the environment (CHURNALYTICS_ prefix),
// with an optional .env file for local development.
func NewConfig() (*Configuration, error) {
	// Best effort; production never ships a .env file.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CHURNALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := GetDefaultConfig()
	bindDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetDefaultConfig returns the defaults used before configuration is loaded,
// and as the base the environment overrides.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "development"},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: "info"},
		ClickHouse: ClickHouseConfig{
			Address:  "localhost:9000",
			Database: "analytics",
			Username: "default",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			DBName:   "creatorly",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			PoolSize: 10,
			Timeout:  5 * time.Second,
		},
		Cache: CacheConfig{Enabled: true, Type: "inmemory"},
		Analytics: AnalyticsConfig{
			MaxBucketsPerPage: 1000,
			StableAfterDays:   2,
		},
	}
}

func bindDefaults(v *viper.Viper, cfg *Configuration) {
	v.SetDefault("deployment.mode", cfg.Deployment.Mode)
	v.SetDefault("server.address", cfg.Server.Address)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("clickhouse.address", cfg.ClickHouse.Address)
	v.SetDefault("clickhouse.database", cfg.ClickHouse.Database)
	v.SetDefault("clickhouse.username", cfg.ClickHouse.Username)
	v.SetDefault("clickhouse.password", cfg.ClickHouse.Password)
	v.SetDefault("clickhouse.use_tls", cfg.ClickHouse.UseTLS)
	v.SetDefault("postgres.host", cfg.Postgres.Host)
	v.SetDefault("postgres.port", cfg.Postgres.Port)
	v.SetDefault("postgres.user", cfg.Postgres.User)
	v.SetDefault("postgres.password", cfg.Postgres.Password)
	v.SetDefault("postgres.dbname", cfg.Postgres.DBName)
	v.SetDefault("postgres.sslmode", cfg.Postgres.SSLMode)
	v.SetDefault("postgres.max_conns", cfg.Postgres.MaxConns)
	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.use_tls", cfg.Redis.UseTLS)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)
	v.SetDefault("redis.timeout", cfg.Redis.Timeout)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.type", cfg.Cache.Type)
	v.SetDefault("analytics.max_buckets_per_page", cfg.Analytics.MaxBucketsPerPage)
	v.SetDefault("analytics.stable_after_days", cfg.Analytics.StableAfterDays)
}
