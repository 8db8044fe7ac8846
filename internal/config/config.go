// Package config resolves server settings from defaults, an optional YAML
// file and environment variables, in that order (environment wins).
// A .env file in the working directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppName    string `yaml:"app_name"`
	Debug      bool   `yaml:"debug"`
	ListenAddr string `yaml:"listen_addr"`

	// SecretKey signs access tokens. Must be overridden in production.
	SecretKey       string `yaml:"secret_key"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`

	DatabasePath string `yaml:"database_path"`

	MediaDir string `yaml:"media_dir"`
	// MediaEncKey is a 64-char hex string (32 bytes). Empty means media is
	// stored in plaintext.
	MediaEncKey string `yaml:"media_enc_key"`

	SentryDSN string `yaml:"sentry_dsn"`
}

func defaults() Config {
	return Config{
		AppName:         "Messenger Backend",
		Debug:           true,
		ListenAddr:      ":8080",
		SecretKey:       "change-me-in-.env",
		TokenTTLMinutes: 60 * 24,
		DatabasePath:    "messenger.db",
		MediaDir:        "uploads",
	}
}

// Load builds the effective configuration. yamlPath may be empty.
func Load(yamlPath string) (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.AppName, "APP_NAME")
	setBool(&cfg.Debug, "DEBUG")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.SecretKey, "SECRET_KEY")
	setInt(&cfg.TokenTTLMinutes, "ACCESS_TOKEN_EXPIRE_MINUTES")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.MediaDir, "MEDIA_DIR")
	setString(&cfg.MediaEncKey, "MEDIA_ENC_KEY")
	setString(&cfg.SentryDSN, "SENTRY_DSN")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
