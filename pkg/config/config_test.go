package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "webinar-service", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "webinar_db", cfg.Database.DBName)
	assert.Equal(t, 3, cfg.Webinar.UpdateMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Webinar.CacheTTL)
	assert.Equal(t, "webinar.seats-changed", cfg.Webinar.SeatsChangedTopic)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Kafka.PublishTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("WEBINAR_UPDATE_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Webinar.UpdateMaxAttempts)
}

func TestLoadWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "APP_NAME=webinar-test\nDATABASE_DBNAME=webinar_test\nREDIS_ENABLED=false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)

	assert.Equal(t, "webinar-test", cfg.App.Name)
	assert.Equal(t, "webinar_test", cfg.Database.DBName)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadWithPath_MissingFile(t *testing.T) {
	_, err := LoadWithPath(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Name: "webinar-service", Environment: "development"},
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Enabled: true, Host: "localhost", DBName: "webinar_db"},
			JWT:      JWTConfig{Secret: "secret"},
			Webinar:  WebinarConfig{UpdateMaxAttempts: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: true},
		{name: "memory store needs no db host", mutate: func(c *Config) {
			c.Database.Enabled = false
			c.Database.Host = ""
		}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{name: "missing secret with trusted header", mutate: func(c *Config) {
			c.JWT.Secret = ""
			c.JWT.TrustUserHeader = true
		}},
		{name: "default secret in production", mutate: func(c *Config) {
			c.App.Environment = "production"
			c.JWT.Secret = defaultJWTSecret
		}, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Webinar.UpdateMaxAttempts = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", d.DSN())
}
