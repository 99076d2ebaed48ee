package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		bind:           "127.0.0.1",
		port:           8080,
		role:           roleBoth,
		channel:        channelMemory,
		channelName:    "feud.state",
		overlayDelay:   2 * time.Second,
		replaceTimeout: 15 * time.Second,
		batchTimeout:   30 * time.Second,
		remoteRetries:  3,
		remoteBackoff:  time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"tls pair", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, false},
		{"tls cert only", func(c *Config) { c.tlsCert = "cert.pem" }, true},
		{"port zero", func(c *Config) { c.port = 0 }, true},
		{"port too high", func(c *Config) { c.port = 70000 }, true},
		{"unknown role", func(c *Config) { c.role = "judge" }, true},
		{"memory channel split", func(c *Config) { c.role = roleHost; c.dataDir = "/tmp/feud" }, true},
		{"nats without url", func(c *Config) { c.channel = channelNATS }, true},
		{"nats split", func(c *Config) {
			c.role, c.channel, c.natsURL, c.dataDir = roleDisplay, channelNATS, "nats://127.0.0.1:4222", "/tmp/feud"
		}, false},
		{"split without data dir", func(c *Config) {
			c.role, c.channel, c.natsURL = roleHost, channelNATS, "nats://127.0.0.1:4222"
		}, true},
		{"unknown channel", func(c *Config) { c.channel = "pigeon" }, true},
		{"zero overlay", func(c *Config) { c.overlayDelay = 0 }, true},
		{"negative timeout", func(c *Config) { c.replaceTimeout = -time.Second }, true},
		{"no retries", func(c *Config) { c.remoteRetries = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Roles(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, []string{roleHost, roleDisplay}, cfg.roles())

	cfg.role = roleDisplay
	assert.Equal(t, []string{roleDisplay}, cfg.roles())
}

func TestConfig_Scheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "c", "k"
	assert.Equal(t, "https", cfg.scheme())
}

func TestNewCmd_EnvOverrides(t *testing.T) {
	t.Setenv("FEUD_ROLE", "display")
	t.Setenv("FEUD_STRIKE_OVERLAY", "3s")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NotNil(t, cmd)

	assert.Equal(t, roleDisplay, cfg.role)
	assert.Equal(t, 3*time.Second, cfg.overlayDelay)
	assert.Equal(t, 8080, cfg.port)
}
