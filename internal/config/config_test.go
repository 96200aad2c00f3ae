package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ChatServiceURL:    "http://localhost:8080",
		StreamAPIURL:      "http://localhost:8080",
		JWTSecret:         defaultJWTSecret,
		Env:               "development",
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		ReportTimeout:     3 * time.Second,
		CountdownInterval: time.Second,
		RefreshInterval:   30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development config", func(c *Config) {}, false},
		{"Missing chat service URL", func(c *Config) { c.ChatServiceURL = "" }, true},
		{"Non-http chat service URL", func(c *Config) { c.ChatServiceURL = "ftp://chat" }, true},
		{"Negative reconnect attempts", func(c *Config) { c.ReconnectAttempts = -1 }, true},
		{"Zero reconnect attempts allowed", func(c *Config) { c.ReconnectAttempts = 0 }, false},
		{"Zero reconnect delay", func(c *Config) { c.ReconnectDelay = 0 }, true},
		{"Zero report timeout", func(c *Config) { c.ReportTimeout = 0 }, true},
		{"Zero countdown interval", func(c *Config) { c.CountdownInterval = 0 }, true},
		{"Production with default secret", func(c *Config) { c.Env = "production" }, true},
		{"Production with strong secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CHAT_SERVICE_URL", "https://chat.example.com/")
	t.Setenv("REPORT_TIMEOUT", "5s")
	t.Setenv("RECONNECT_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.ChatServiceURL)
	assert.Equal(t, 5*time.Second, cfg.ReportTimeout)
	assert.Equal(t, 3, cfg.ReconnectAttempts)
	assert.Equal(t, DefaultReconnectDelay, cfg.ReconnectDelay)
}

func TestSocketURL(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "ws://localhost:8080/ws", c.SocketURL())

	c.ChatServiceURL = "https://chat.example.com/svc"
	assert.Equal(t, "wss://chat.example.com/svc/ws", c.SocketURL())
}
