package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "test-app",
			Mode:     "development",
			LogLevel: "info",
		},
		Arbiter: ArbiterConfig{
			TickPeriod: 10 * time.Millisecond,
		},
		Collector: CollectorConfig{
			Type: "simulator",
		},
		Database: DatabaseConfig{
			Enabled:        true,
			Driver:         "postgres",
			Host:           "localhost",
			Port:           5432,
			Name:           "testdb",
			MaxConnections: 10,
		},
		API: APIConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectErr   bool
		errContains string
	}{
		{
			name:       "valid config",
			modifyFunc: func(c *Config) {},
		},
		{
			name:        "zero tick period",
			modifyFunc:  func(c *Config) { c.Arbiter.TickPeriod = 0 },
			expectErr:   true,
			errContains: "tick_period must be positive",
		},
		{
			name:        "replay without path",
			modifyFunc:  func(c *Config) { c.Collector.Type = "replay" },
			expectErr:   true,
			errContains: "collector.path is required",
		},
		{
			name:        "unknown collector",
			modifyFunc:  func(c *Config) { c.Collector.Type = "can" },
			expectErr:   true,
			errContains: "collector.type must be one of",
		},
		{
			name: "sqlite needs a path",
			modifyFunc: func(c *Config) {
				c.Database.Driver = "sqlite"
			},
			expectErr:   true,
			errContains: "database.path is required",
		},
		{
			name:        "unknown driver",
			modifyFunc:  func(c *Config) { c.Database.Driver = "mysql" },
			expectErr:   true,
			errContains: "database.driver must be one of",
		},
		{
			name: "disabled database is not checked",
			modifyFunc: func(c *Config) {
				c.Database.Enabled = false
				c.Database.Driver = "mysql"
			},
		},
		{
			name: "redis needs a channel",
			modifyFunc: func(c *Config) {
				c.Redis = RedisConfig{Enabled: true, Addr: "localhost:6379"}
			},
			expectErr:   true,
			errContains: "redis.channel is required",
		},
		{
			name: "default secret in production",
			modifyFunc: func(c *Config) {
				c.App.Mode = "production"
				c.API.JWTSecret = "change-me-in-production"
			},
			expectErr:   true,
			errContains: "jwt_secret must be changed",
		},
		{
			name:        "bad log level",
			modifyFunc:  func(c *Config) { c.App.LogLevel = "trace" },
			expectErr:   true,
			errContains: "app.log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)

			err := cfg.Validate()

			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: bench\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bench", cfg.App.Name)
	assert.Equal(t, 10*time.Millisecond, cfg.Arbiter.TickPeriod)
	assert.Equal(t, "simulator", cfg.Collector.Type)
	assert.Equal(t, 50*time.Millisecond, cfg.Collector.Timeout)
	assert.Equal(t, "arbiter:alerts", cfg.Redis.Channel)
	assert.Equal(t, 256, cfg.Events.BufferSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
arbiter:
  tick_period: 50ms
  alert_table: overrides.toml
collector:
  type: replay
  path: drive.jsonl
database:
  enabled: true
  driver: sqlite
  path: /tmp/history.db
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("ARBITER_API_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Arbiter.TickPeriod)
	assert.Equal(t, "overrides.toml", cfg.Arbiter.AlertTable)
	assert.Equal(t, "replay", cfg.Collector.Type)
	assert.Equal(t, "drive.jsonl", cfg.Collector.Path)
	assert.Equal(t, "/tmp/history.db", cfg.Database.DSN())
	assert.Equal(t, 9999, cfg.API.Port)

	dbCfg := cfg.Database.ToDBConfig()
	assert.Equal(t, "sqlite", dbCfg.Driver)
	assert.Equal(t, "/tmp/history.db", dbCfg.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dbCfg := DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		Name:     "testdb",
		User:     "admin",
		Password: "secret",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=admin password=secret dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dbCfg.DSN())
}
