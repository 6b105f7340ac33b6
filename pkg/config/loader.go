package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/arbiter")
	}

	v.SetEnvPrefix("ARBITER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "alert-arbiter")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "10s")

	// Arbiter defaults
	v.SetDefault("arbiter.tick_period", "10ms")
	v.SetDefault("arbiter.alert_table", "")
	v.SetDefault("arbiter.max_candidates", 0)
	v.SetDefault("arbiter.publish_ticks", false)
	v.SetDefault("arbiter.pace", "0s")

	// Collector defaults
	v.SetDefault("collector.type", "simulator")
	v.SetDefault("collector.path", "")
	v.SetDefault("collector.endpoint", "http://localhost:9000")
	v.SetDefault("collector.timeout", "50ms")
	v.SetDefault("collector.retry_attempts", 2)
	v.SetDefault("collector.retry_delay", "5ms")
	v.SetDefault("collector.circuit_breaker.max_failures", 5)
	v.SetDefault("collector.circuit_breaker.timeout", "5s")

	// Simulator defaults
	v.SetDefault("simulator.port", 9000)
	v.SetDefault("simulator.scenario", "commute")
	v.SetDefault("simulator.frames", 0)
	v.SetDefault("simulator.brand", "toyota")
	v.SetDefault("simulator.metric", true)
	v.SetDefault("simulator.soft_disable", "2s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "arbiter")
	v.SetDefault("database.user", "arbiter")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.path", "arbiter.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "30s")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "arbiter:alerts")
	v.SetDefault("redis.current_key", "arbiter:alert:current")
	v.SetDefault("redis.timeout", "200ms")
	v.SetDefault("redis.circuit_breaker.max_failures", 3)
	v.SetDefault("redis.circuit_breaker.timeout", "10s")

	// API defaults
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "alert-arbiter")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})
	v.SetDefault("api.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("api.cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"})

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 100)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_size", 512)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.broadcast_buffer", 256)
	v.SetDefault("websocket.client_buffer", 64)

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9090)

	// Events defaults
	v.SetDefault("events.buffer_size", 256)
}
