package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "1433",
			Database: "SimplrPayGateway",
			Username: "sqlgpt",
			Password: "hunter2",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		OpenAI: OpenAIConfig{
			APIKey: "sk-test",
			Model:  "gpt-4o-mini",
		},
		Renderer: RendererConfig{
			Endpoint: "http://localhost:9090",
			Timeout:  60 * time.Second,
		},
		Server: ServerConfig{Port: "8080", GinMode: "release"},
		Query: QueryConfig{
			RequestTimeout: 120 * time.Second,
			DBTimeout:      30 * time.Second,
			RateLimit:      60,
		},
		Audit: AuditConfig{Dir: "."},
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantText string
	}{
		{
			name:     "missing database host",
			mutate:   func(c *Config) { c.Database.Host = "" },
			wantText: "Database.Host",
		},
		{
			name:     "missing database name",
			mutate:   func(c *Config) { c.Database.Database = "" },
			wantText: "Database.Database",
		},
		{
			name:     "missing redis address",
			mutate:   func(c *Config) { c.Redis.Addr = "" },
			wantText: "Redis.Addr",
		},
		{
			name:     "missing OpenAI key",
			mutate:   func(c *Config) { c.OpenAI.APIKey = "" },
			wantText: "OpenAI.APIKey",
		},
		{
			name:     "renderer endpoint without scheme",
			mutate:   func(c *Config) { c.Renderer.Endpoint = "localhost:9090" },
			wantText: "http or https",
		},
		{
			name:     "invalid gin mode",
			mutate:   func(c *Config) { c.Server.GinMode = "production" },
			wantText: "Server.GinMode",
		},
		{
			name:     "non-positive request timeout",
			mutate:   func(c *Config) { c.Query.RequestTimeout = 0 },
			wantText: "Query.RequestTimeout",
		},
		{
			name:     "negative rate limit",
			mutate:   func(c *Config) { c.Query.RateLimit = -1 },
			wantText: "Query.RateLimit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

// TestValidateCollectsAllErrors tests that every failing section is reported
func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""
	cfg.OpenAI.APIKey = ""
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)

	var validationErrs ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Len(t, validationErrs, 3)
	assert.True(t, strings.HasPrefix(err.Error(), "3 validation error(s):"))
}
