package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapProvider serves secrets from a fixed map
type mapProvider struct {
	values map[string]string
}

func (m *mapProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *mapProvider) Name() string { return "map" }

func (m *mapProvider) IsAvailable(ctx context.Context) bool { return true }

// TestLoadDefaults tests that every section falls back to its default
func TestLoadDefaults(t *testing.T) {
	loader := NewLoader(&mapProvider{values: map[string]string{}})

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "1433", cfg.Database.Port)
	assert.Equal(t, "SimplrPayGateway", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "http://localhost:9090", cfg.Renderer.Endpoint)
	assert.Equal(t, 60*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, 120*time.Second, cfg.Query.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Query.DBTimeout)
	assert.Equal(t, 60, cfg.Query.RateLimit)
	assert.Equal(t, ".", cfg.Audit.Dir)
}

// TestLoadOverrides tests that provider values take precedence
func TestLoadOverrides(t *testing.T) {
	loader := NewLoader(&mapProvider{values: map[string]string{
		"DB_HOST":         "sql.internal",
		"DB_PASSWORD":     "hunter2",
		"REDIS_ADDR":      "redis.internal:6379",
		"REDIS_DB":        "3",
		"OPENAI_API_KEY":  "sk-test",
		"OPENAI_MODEL":    "gpt-4o",
		"REQUEST_TIMEOUT": "90s",
		"RATE_LIMIT":      "10",
		"AUDIT_LOG_DIR":   "/var/log/sqlgpt",
	}})

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sql.internal", cfg.Database.Host)
	assert.Equal(t, "hunter2", cfg.Database.Password)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 90*time.Second, cfg.Query.RequestTimeout)
	assert.Equal(t, 10, cfg.Query.RateLimit)
	assert.Equal(t, "/var/log/sqlgpt", cfg.Audit.Dir)
}

// TestLoadInvalidValues tests that unparsable values fall back to defaults
func TestLoadInvalidValues(t *testing.T) {
	loader := NewLoader(&mapProvider{values: map[string]string{
		"REDIS_DB":        "not-a-number",
		"REQUEST_TIMEOUT": "soon",
	}})

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 120*time.Second, cfg.Query.RequestTimeout)
}

// TestChainProvider tests fallback across providers
func TestChainProvider(t *testing.T) {
	empty := &mapProvider{values: map[string]string{}}
	backing := &mapProvider{values: map[string]string{"OPENAI_API_KEY": "sk-chained"}}
	chain := NewChainProvider(empty, backing)

	value, err := chain.GetSecret(context.Background(), "OPENAI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-chained", value)
}
