package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// serverConfig is the YAML configuration for the proxy. Flags override the
// file, environment variables override both for secrets.
type serverConfig struct {
	Listen      string          `yaml:"listen"`
	BaseURL     string          `yaml:"base_url"`
	UserAgent   string          `yaml:"user_agent"`
	AccessToken string          `yaml:"access_token"`
	LogLevel    string          `yaml:"log_level"`
	Pretty      bool            `yaml:"pretty"`
	Cache       cacheFileConfig `yaml:"cache"`
}

type cacheFileConfig struct {
	TTLSeconds         int    `yaml:"ttl_seconds"`
	CheckPeriodSeconds int    `yaml:"check_period_seconds"`
	MaxEntries         int    `yaml:"max_entries"`
	Persistent         bool   `yaml:"persistent"`
	Dir                string `yaml:"dir"`
	RedisAddr          string `yaml:"redis_addr"`
}

// TTL returns the configured default TTL, zero when unset.
func (c cacheFileConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CheckPeriod returns the configured janitor interval, zero when unset.
func (c cacheFileConfig) CheckPeriod() time.Duration {
	return time.Duration(c.CheckPeriodSeconds) * time.Second
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		Listen:    ":8080",
		UserAgent: "commerce-proxy/0.1.0",
		LogLevel:  "info",
	}
}

// loadConfig reads the optional YAML config file and applies environment
// overrides. COMMERCE_ACCESS_TOKEN always wins so the token never has to live
// in a file.
func loadConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if baseURL := os.Getenv("COMMERCE_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if token := os.Getenv("COMMERCE_ACCESS_TOKEN"); token != "" {
		cfg.AccessToken = token
	}
	if listen := os.Getenv("COMMERCE_LISTEN"); listen != "" {
		cfg.Listen = listen
	}

	return cfg, nil
}
