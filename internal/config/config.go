// Package config loads runtime settings for the chat client, the dev chat
// server and the admin tool.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds values loaded from .env, config files and the environment.
type Config struct {
	ChatServiceURL    string        `mapstructure:"CHAT_SERVICE_URL"`
	StreamAPIURL      string        `mapstructure:"STREAM_API_URL"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	DatabaseDSN       string        `mapstructure:"DATABASE_DSN"`
	ListenAddr        string        `mapstructure:"LISTEN_ADDR"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	Env               string        `mapstructure:"APP_ENV"`
	ReconnectAttempts int           `mapstructure:"RECONNECT_ATTEMPTS"`
	ReconnectDelay    time.Duration `mapstructure:"RECONNECT_DELAY"`
	ReportTimeout     time.Duration `mapstructure:"REPORT_TIMEOUT"`
	CountdownInterval time.Duration `mapstructure:"COUNTDOWN_INTERVAL"`
	RefreshInterval   time.Duration `mapstructure:"REFRESH_INTERVAL"`
}

const defaultJWTSecret = "dev-secret-change-me"

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("streamchat")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	setDefaults(v)

	// The config file is optional.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.ChatServiceURL = strings.TrimRight(strings.TrimSpace(cfg.ChatServiceURL), "/")
	cfg.StreamAPIURL = strings.TrimRight(strings.TrimSpace(cfg.StreamAPIURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CHAT_SERVICE_URL", "http://localhost:8080")
	v.SetDefault("STREAM_API_URL", "http://localhost:8080")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("DATABASE_DSN", "host=localhost user=user password=password dbname=streamchat port=5432 sslmode=disable")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("RECONNECT_ATTEMPTS", DefaultReconnectAttempts)
	v.SetDefault("RECONNECT_DELAY", DefaultReconnectDelay)
	v.SetDefault("REPORT_TIMEOUT", ReportFallbackTimeout)
	v.SetDefault("COUNTDOWN_INTERVAL", DefaultCountdownInterval)
	v.SetDefault("REFRESH_INTERVAL", DefaultRefreshInterval)
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if c.ChatServiceURL == "" {
		return errors.New("CHAT_SERVICE_URL is required")
	}
	u, err := url.Parse(c.ChatServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CHAT_SERVICE_URL must be an http(s) URL, got %q", c.ChatServiceURL)
	}
	if c.ReconnectAttempts < 0 {
		return errors.New("RECONNECT_ATTEMPTS must not be negative")
	}
	if c.ReconnectDelay <= 0 {
		return errors.New("RECONNECT_DELAY must be positive")
	}
	if c.ReportTimeout <= 0 {
		return errors.New("REPORT_TIMEOUT must be positive")
	}
	if c.CountdownInterval <= 0 || c.RefreshInterval <= 0 {
		return errors.New("COUNTDOWN_INTERVAL and REFRESH_INTERVAL must be positive")
	}

	if c.Env == "production" || c.Env == "prod" {
		if c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be changed and at least 32 characters in production")
		}
	}
	return nil
}

// SocketURL derives the websocket endpoint from the chat service base URL.
func (c *Config) SocketURL() string {
	u, err := url.Parse(c.ChatServiceURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String()
}
