package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "ampera/backend/libs/config"
)

// Upstream modes supported by the dashboard service.
const (
	ModeREST     = "rest"
	ModePostgres = "postgres"
	ModeMock     = "mock"
)

// Config defines dashboard service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"DASHBOARD_HTTP_PORT"`
	} `yaml:"http"`
	Upstream struct {
		Mode            string        `yaml:"mode" env:"DASHBOARD_UPSTREAM_MODE"`
		RESTURL         string        `yaml:"restUrl" env:"DASHBOARD_UPSTREAM_REST_URL"`
		ServiceKey      string        `yaml:"serviceKey" env:"DASHBOARD_UPSTREAM_SERVICE_KEY"`
		TelemetryTable  string        `yaml:"telemetryTable" env:"DASHBOARD_UPSTREAM_TELEMETRY_TABLE"`
		PredictionTable string        `yaml:"predictionTable" env:"DASHBOARD_UPSTREAM_PREDICTION_TABLE"`
		Timeout         time.Duration `yaml:"timeout" env:"DASHBOARD_UPSTREAM_TIMEOUT"`
	} `yaml:"upstream"`
	Database struct {
		DSN string `yaml:"dsn" env:"DASHBOARD_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr        string `yaml:"addr" env:"DASHBOARD_REDIS_ADDR"`
		Password    string `yaml:"password" env:"DASHBOARD_REDIS_PASSWORD"`
		DB          int    `yaml:"db" env:"DASHBOARD_REDIS_DB"`
		SnapshotTTL int    `yaml:"snapshotTtlSeconds" env:"DASHBOARD_REDIS_SNAPSHOT_TTL"`
	} `yaml:"redis"`
	Mock struct {
		Seed int64 `yaml:"seed" env:"DASHBOARD_MOCK_SEED"`
	} `yaml:"mock"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Upstream.Mode = ModeMock
	cfg.Upstream.Timeout = 15 * time.Second
	cfg.Redis.SnapshotTTL = 60
	cfg.Mock.Seed = 42

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	cfg.Upstream.Mode = strings.ToLower(strings.TrimSpace(cfg.Upstream.Mode))
	switch cfg.Upstream.Mode {
	case ModeREST:
		if strings.TrimSpace(cfg.Upstream.RESTURL) == "" {
			return nil, errors.New("config: upstream rest url required")
		}
		if strings.TrimSpace(cfg.Upstream.ServiceKey) == "" {
			return nil, errors.New("config: upstream service key required")
		}
	case ModePostgres:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return nil, errors.New("config: database dsn required")
		}
	case ModeMock:
	default:
		return nil, fmt.Errorf("config: unknown upstream mode %q", cfg.Upstream.Mode)
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// SnapshotTTLDuration returns the cache ttl as duration.
func (c *Config) SnapshotTTLDuration() time.Duration {
	if c.Redis.SnapshotTTL <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Redis.SnapshotTTL) * time.Second
}
