package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mquell/undercover/internal/session"
)

// Config is the process configuration. Connection secrets come from the
// environment; gameplay tuning may be overridden by an optional YAML file.
type Config struct {
	Port       string
	Env        string
	AuthSecret string

	NatsURL    string
	NatsPrefix string

	Database DatabaseConfig
	Session  session.Config
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type tuningFile struct {
	Session struct {
		LongGraceSeconds         int `yaml:"long_grace_seconds"`
		ShortGraceSeconds        int `yaml:"short_grace_seconds"`
		ActivityThresholdSeconds int `yaml:"activity_threshold_seconds"`
		LeftTTLSeconds           int `yaml:"left_ttl_seconds"`
		HeartbeatTimeoutSeconds  int `yaml:"heartbeat_timeout_seconds"`
	} `yaml:"session"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("ENV", "development"),
		AuthSecret: os.Getenv("AUTH_SECRET"),
		NatsURL:    os.Getenv("NATS_URL"),
		NatsPrefix: getEnv("NATS_PREFIX", "undercover"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "undercover"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Session: session.DefaultConfig(),
	}
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET environment variable is required")
	}

	path := getEnv("CONFIG_PATH", "config.yaml")
	if err := applyTuning(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyTuning overlays the optional YAML tuning file. A missing file keeps
// the defaults.
func applyTuning(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file tuningFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	s := file.Session
	if s.LongGraceSeconds > 0 {
		cfg.Session.LongGrace = time.Duration(s.LongGraceSeconds) * time.Second
	}
	if s.ShortGraceSeconds > 0 {
		cfg.Session.ShortGrace = time.Duration(s.ShortGraceSeconds) * time.Second
	}
	if s.ActivityThresholdSeconds > 0 {
		cfg.Session.ActivityThreshold = time.Duration(s.ActivityThresholdSeconds) * time.Second
	}
	if s.LeftTTLSeconds > 0 {
		cfg.Session.LeftTTL = time.Duration(s.LeftTTLSeconds) * time.Second
	}
	if s.HeartbeatTimeoutSeconds > 0 {
		cfg.Session.HeartbeatTimeout = time.Duration(s.HeartbeatTimeoutSeconds) * time.Second
	}
	return nil
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
