package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Arbiter validation
	if c.Arbiter.TickPeriod <= 0 {
		errs = append(errs, errors.New("arbiter.tick_period must be positive"))
	}
	if c.Arbiter.MaxCandidates < 0 {
		errs = append(errs, errors.New("arbiter.max_candidates must not be negative"))
	}
	if c.Arbiter.Pace < 0 {
		errs = append(errs, errors.New("arbiter.pace must not be negative"))
	}

	// Collector validation
	switch c.Collector.Type {
	case "replay":
		if c.Collector.Path == "" {
			errs = append(errs, errors.New("collector.path is required for replay"))
		}
	case "http":
		if c.Collector.Endpoint == "" {
			errs = append(errs, errors.New("collector.endpoint is required for http"))
		}
		if c.Collector.Timeout <= 0 {
			errs = append(errs, errors.New("collector.timeout must be positive"))
		}
	case "simulator":
	default:
		errs = append(errs, errors.New("collector.type must be one of: replay, http, simulator"))
	}
	if c.Collector.RetryAttempts < 0 {
		errs = append(errs, errors.New("collector.retry_attempts must not be negative"))
	}

	// Database validation
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "postgres":
			if c.Database.Host == "" {
				errs = append(errs, errors.New("database.host is required"))
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, errors.New("database.port must be between 1 and 65535"))
			}
			if c.Database.Name == "" {
				errs = append(errs, errors.New("database.name is required"))
			}
		case "sqlite":
			if c.Database.Path == "" {
				errs = append(errs, errors.New("database.path is required for sqlite"))
			}
		default:
			errs = append(errs, errors.New("database.driver must be one of: postgres, sqlite"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
	}

	// Redis validation
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required"))
		}
		if c.Redis.Channel == "" {
			errs = append(errs, errors.New("redis.channel is required"))
		}
	}

	// API validation
	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			errs = append(errs, errors.New("api.port must be between 1 and 65535"))
		}
		if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
			errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
		}
	}

	if c.Prometheus.Enabled && (c.Prometheus.Port <= 0 || c.Prometheus.Port > 65535) {
		errs = append(errs, errors.New("prometheus.port must be between 1 and 65535"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
