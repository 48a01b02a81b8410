package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Deribit  DeribitConfig  `mapstructure:"deribit"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Server   ServerConfig   `mapstructure:"server"`
	Display  DisplayConfig  `mapstructure:"display"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type DeribitConfig struct {
	REST RESTConfig `mapstructure:"rest"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WorkerConfig drives the periodic fetch loop.
type WorkerConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DisplayConfig controls how query results are rendered. Storage stays UTC;
// the offset applies only to response formatting.
type DisplayConfig struct {
	UTCOffsetHours int `mapstructure:"utc_offset_hours"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// RedisConfig configures the fetch announcement publisher. An empty Addr
// disables publishing.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// Load loads application configuration using Viper.
// It reads from config.yaml when present and overrides with environment
// variables; defaults alone are enough to run against localhost.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if dir := os.Getenv("PRICE_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., DERIBIT_REST_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deribit.rest.base_url", "https://test.deribit.com/api/v2")
	v.SetDefault("deribit.rest.timeout", 10*time.Second)

	v.SetDefault("worker.interval", time.Minute)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.retry_delay", 5*time.Second)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("display.utc_offset_hours", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "price_db")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "index_prices")
}

var validLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {},
}

func (cfg *Config) Validate() error {
	if cfg.Deribit.REST.Timeout <= 0 {
		return fmt.Errorf("deribit.rest.timeout must be positive, got %v", cfg.Deribit.REST.Timeout)
	}
	if cfg.Worker.Interval <= 0 {
		return fmt.Errorf("worker.interval must be positive, got %v", cfg.Worker.Interval)
	}
	if cfg.Worker.MaxRetries < 0 {
		return fmt.Errorf("worker.max_retries must not be negative, got %d", cfg.Worker.MaxRetries)
	}
	if cfg.Worker.RetryDelay < 0 {
		return fmt.Errorf("worker.retry_delay must not be negative, got %v", cfg.Worker.RetryDelay)
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if _, ok := validLogLevels[cfg.Log.Level]; !ok {
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", cfg.Log.Level)
	}
	if cfg.Postgres.Host == "" {
		return fmt.Errorf("postgres.host must not be empty")
	}
	if cfg.Postgres.Port <= 0 || cfg.Postgres.Port > 65535 {
		return fmt.Errorf("postgres.port must be in 1..65535, got %d", cfg.Postgres.Port)
	}
	if cfg.Postgres.DBName == "" {
		return fmt.Errorf("postgres.dbname must not be empty")
	}
	if cfg.Postgres.User == "" {
		return fmt.Errorf("postgres.user must not be empty")
	}
	// Empty password stays allowed for local trust auth.
	if p := cfg.Postgres.Password; p != "" && len(p) < 8 {
		return fmt.Errorf("postgres.password must be at least 8 characters when set")
	}
	return nil
}
