package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "ampera/backend/libs/config"
)

// Config defines triage service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"TRIAGE_HTTP_PORT"`
	} `yaml:"http"`
	LLM struct {
		URL     string        `yaml:"url" env:"TRIAGE_LLM_URL"`
		APIKey  string        `yaml:"apiKey" env:"TRIAGE_LLM_API_KEY"`
		Model   string        `yaml:"model" env:"TRIAGE_LLM_MODEL"`
		Timeout time.Duration `yaml:"timeout" env:"TRIAGE_LLM_TIMEOUT"`
	} `yaml:"llm"`
	Redis struct {
		Addr     string `yaml:"addr" env:"TRIAGE_REDIS_ADDR"`
		Password string `yaml:"password" env:"TRIAGE_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"TRIAGE_REDIS_DB"`
	} `yaml:"redis"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8081"
	cfg.LLM.Model = "gpt-5"
	cfg.LLM.Timeout = 30 * time.Second

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.LLM.URL) == "" {
		return nil, errors.New("config: llm url required")
	}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return nil, errors.New("config: llm api key required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8081"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
