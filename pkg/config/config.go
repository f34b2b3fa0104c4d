package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OTel     OTelConfig     `mapstructure:"otel"`
	Webinar  WebinarConfig  `mapstructure:"webinar"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	// Enabled selects PostgreSQL; when false webinars live in process memory
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	ClientID string   `mapstructure:"client_id"`
	// PublishTimeout bounds the post-commit seats-changed publish
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// JWTConfig holds JWT verification settings
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
	// TrustUserHeader accepts X-User-ID set by an upstream gateway instead of a bearer token.
	TrustUserHeader bool `mapstructure:"trust_user_header"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// WebinarConfig holds seat-change behaviour settings
type WebinarConfig struct {
	UpdateMaxAttempts  int           `mapstructure:"update_max_attempts"`
	UpdateRetryBackoff time.Duration `mapstructure:"update_retry_backoff"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	SeatsChangedTopic  string        `mapstructure:"seats_changed_topic"`
}

// defaults are keyed by section.field; the matching environment variable is
// the upper-cased key with dots turned into underscores (server.port -> SERVER_PORT).
var defaults = map[string]any{
	"app.name":        "webinar-service",
	"app.environment": "development",
	"app.debug":       true,
	"app.version":     "1.0.0",
	"app.log_level":   "info",

	"server.host":             "0.0.0.0",
	"server.port":             8080,
	"server.read_timeout":     "15s",
	"server.write_timeout":    "15s",
	"server.idle_timeout":     "60s",
	"server.shutdown_timeout": "10s",

	"database.enabled":            true,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "postgres",
	"database.dbname":             "webinar_db",
	"database.sslmode":            "disable",
	"database.max_open_conns":     20,
	"database.min_idle_conns":     2,
	"database.conn_max_lifetime":  "30m",
	"database.conn_max_idle_time": "5m",
	"database.auto_migrate":       true,

	"redis.enabled":        true,
	"redis.host":           "localhost",
	"redis.port":           6379,
	"redis.password":       "",
	"redis.db":             0,
	"redis.pool_size":      50,
	"redis.min_idle_conns": 5,
	"redis.dial_timeout":   "5s",
	"redis.read_timeout":   "3s",
	"redis.write_timeout":  "3s",

	"kafka.enabled":         false,
	"kafka.brokers":         "localhost:9092",
	"kafka.client_id":       "webinar-service",
	"kafka.publish_timeout": "3s",

	"jwt.secret":            defaultJWTSecret,
	"jwt.issuer":            "",
	"jwt.trust_user_header": false,

	"otel.enabled":        false,
	"otel.service_name":   "webinar-service",
	"otel.collector_addr": "localhost:4317",
	"otel.sample_ratio":   1.0,

	"webinar.update_max_attempts":  3,
	"webinar.update_retry_backoff": "20ms",
	"webinar.cache_ttl":            "5m",
	"webinar.seats_changed_topic":  "webinar.seats-changed",
}

// Load reads an optional .env in the working directory, then the environment.
func Load() (*Config, error) {
	v := newViper(".env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}
	return decode(v)
}

// LoadWithPath is Load with a required env file at path.
func LoadWithPath(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

func newViper(file string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		// env files hold flat keys (server_port); they sit below real env vars
		if flat := strings.ReplaceAll(key, ".", "_"); v.InConfig(flat) {
			value = v.Get(flat)
		}
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// splitList trims entries and also splits any that still contain commas.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DATABASE_HOST is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("DATABASE_DBNAME is required")
		}
	}

	if c.JWT.Secret == "" && !c.JWT.TrustUserHeader {
		return fmt.Errorf("JWT secret is required")
	}

	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when kafka is enabled")
	}

	if c.Webinar.UpdateMaxAttempts < 1 {
		return fmt.Errorf("WEBINAR_UPDATE_MAX_ATTEMPTS must be at least 1, got %d", c.Webinar.UpdateMaxAttempts)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
