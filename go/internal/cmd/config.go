package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcanally/quorum/go/internal/gateway"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from an optional YAML file
// with environment variable overrides on top.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	WebSocket struct {
		WriteTimeoutSec int   `yaml:"write_timeout_sec"`
		ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
		PingIntervalSec int   `yaml:"ping_interval_sec"`
		MaxMessageSize  int64 `yaml:"max_message_size"`
	} `yaml:"websocket"`
	LogLevel string `yaml:"log_level"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML config file and applies env overrides. A missing
// file is not an error; everything has a default.
func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.Server.Port = getEnv("PORT", defaultString(config.Server.Port, "8080"))
	config.LogLevel = getEnv("LOG_LEVEL", defaultString(config.LogLevel, "info"))
	config.WebSocket.PingIntervalSec = getEnvAsInt("WS_PING_INTERVAL_SEC", config.WebSocket.PingIntervalSec)
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{"*"}
	}

	return &config, nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// connectionConfig translates the config into gateway settings, falling back
// to the gateway defaults for anything unset.
func (c *Config) connectionConfig() gateway.ConnectionConfig {
	cfg := gateway.DefaultConnectionConfig()
	if c.WebSocket.WriteTimeoutSec > 0 {
		cfg.WriteTimeout = time.Duration(c.WebSocket.WriteTimeoutSec) * time.Second
	}
	if c.WebSocket.ReadTimeoutSec > 0 {
		cfg.ReadTimeout = time.Duration(c.WebSocket.ReadTimeoutSec) * time.Second
	}
	if c.WebSocket.PingIntervalSec > 0 {
		cfg.PingInterval = time.Duration(c.WebSocket.PingIntervalSec) * time.Second
	}
	if c.WebSocket.MaxMessageSize > 0 {
		cfg.MaxMessageSize = c.WebSocket.MaxMessageSize
	}
	return cfg
}
