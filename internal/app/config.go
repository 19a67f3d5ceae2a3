package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/findable-backend/internal/data/db"
	"github.com/yungbote/findable-backend/internal/platform/envutil"
)

const configFileEnv = "FINDABLE_CONFIG_FILE"

type DatabaseConfig struct {
	Driver     string            `yaml:"driver"`
	Postgres   db.PostgresConfig `yaml:"postgres"`
	SQLitePath string            `yaml:"sqlite_path"`
}

type SweepConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
	BatchSize       int  `yaml:"batch_size"`
}

type RealtimeConfig struct {
	DefaultHours    int `yaml:"default_hours"`
	MaxHours        int `yaml:"max_hours"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	Port            string         `yaml:"port"`
	LogMode         string         `yaml:"log_mode"`
	Environment     string         `yaml:"environment"`
	ServiceName     string         `yaml:"service_name"`
	Version         string         `yaml:"version"`
	CORSOrigins     []string       `yaml:"cors_origins"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout"`
	MetricsEnabled  bool           `yaml:"metrics_enabled"`
	Database        DatabaseConfig `yaml:"database"`
	Sweep           SweepConfig    `yaml:"sweep"`
	Realtime        RealtimeConfig `yaml:"realtime"`
	Redis           RedisConfig    `yaml:"redis"`
	Otel            OtelConfig     `yaml:"otel"`
}

func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweep.IntervalMinutes) * time.Minute
}

func (c Config) RealtimeCacheTTL() time.Duration {
	return time.Duration(c.Realtime.CacheTTLSeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		Port:            "8080",
		LogMode:         "development",
		Environment:     "development",
		ServiceName:     "findable-metrics",
		ShutdownTimeout: 15 * time.Second,
		Database: DatabaseConfig{
			Driver: "postgres",
			Postgres: db.PostgresConfig{
				Host: "localhost",
				Port: "5432",
				User: "postgres",
				Name: "findable",
			},
			SQLitePath: "findable.db",
		},
		Sweep: SweepConfig{
			Enabled:         true,
			IntervalMinutes: 5,
			BatchSize:       10,
		},
		Realtime: RealtimeConfig{
			DefaultHours: 24,
			MaxHours:     168,
		},
		Redis: RedisConfig{Channel: "findable:metrics"},
	}
}

// LoadConfig layers defaults, then the YAML file named by FINDABLE_CONFIG_FILE, then the
// environment.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv(configFileEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	cfg.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.Version = envutil.String("APP_VERSION", cfg.Version)
	cfg.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.ShutdownTimeout = envutil.Duration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	cfg.Database.Driver = envutil.String("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Database.Postgres.Host)
	cfg.Database.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Database.Postgres.Port)
	cfg.Database.Postgres.User = envutil.String("POSTGRES_USER", cfg.Database.Postgres.User)
	cfg.Database.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Database.Postgres.Password)
	cfg.Database.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Database.Postgres.Name)
	cfg.Database.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.Database.Postgres.SSLMode)
	cfg.Database.SQLitePath = envutil.String("SQLITE_PATH", cfg.Database.SQLitePath)

	cfg.Sweep.Enabled = envutil.Bool("SWEEP_ENABLED", cfg.Sweep.Enabled)
	cfg.Sweep.IntervalMinutes = envutil.Int("SWEEP_INTERVAL_MINUTES", cfg.Sweep.IntervalMinutes)
	cfg.Sweep.BatchSize = envutil.Int("SWEEP_BATCH_SIZE", cfg.Sweep.BatchSize)

	cfg.Realtime.DefaultHours = envutil.Int("REALTIME_DEFAULT_HOURS", cfg.Realtime.DefaultHours)
	cfg.Realtime.MaxHours = envutil.Int("REALTIME_MAX_HOURS", cfg.Realtime.MaxHours)
	cfg.Realtime.CacheTTLSeconds = envutil.Int("REALTIME_CACHE_TTL_SECONDS", cfg.Realtime.CacheTTLSeconds)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", cfg.Otel.SampleRatio)
}

func (c *Config) normalize() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	if c.Sweep.IntervalMinutes <= 0 {
		c.Sweep.IntervalMinutes = 5
	}
	if c.Sweep.BatchSize <= 0 {
		c.Sweep.BatchSize = 10
	}
	if c.Realtime.MaxHours <= 0 {
		c.Realtime.MaxHours = 168
	}
	if c.Realtime.DefaultHours <= 0 || c.Realtime.DefaultHours > c.Realtime.MaxHours {
		c.Realtime.DefaultHours = min(24, c.Realtime.MaxHours)
	}
	if c.Realtime.CacheTTLSeconds < 0 {
		c.Realtime.CacheTTLSeconds = 0
	}
	return nil
}
