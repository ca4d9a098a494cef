package config

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Sales database configuration (SQL Server)
	Database DatabaseConfig

	// Redis configuration (rate limiter backing store)
	Redis RedisConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Rendering sandbox configuration
	Renderer RendererConfig

	// HTTP server configuration
	Server ServerConfig

	// Query pipeline configuration
	Query QueryConfig

	// Audit log configuration
	Audit AuditConfig
}

// DatabaseConfig holds SQL Server configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// RendererConfig holds the chart rendering sandbox configuration
type RendererConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// QueryConfig holds query pipeline configuration
type QueryConfig struct {
	RequestTimeout time.Duration
	DBTimeout      time.Duration
	RateLimit      int // requests per minute per client, 0 disables
}

// AuditConfig holds audit log configuration
type AuditConfig struct {
	Dir string
}

// Loader handles loading configuration from various sources
type Loader struct {
	provider SecretProvider
}

// NewLoader creates a new configuration loader with the given secret provider
func NewLoader(provider SecretProvider) *Loader {
	return &Loader{
		provider: provider,
	}
}

// NewDefaultLoader creates a loader with the default provider chain:
// 1. Kubernetes secrets (if available)
// 2. File-based secrets (if available)
// 3. Environment variables (fallback)
func NewDefaultLoader() *Loader {
	providers := []SecretProvider{
		NewK8sProvider("", ""),          // Auto-detect K8s environment
		NewFileProvider("/var/secrets"), // Common secret mount path
		NewEnvProvider(),                // Always available fallback
	}

	return &Loader{
		provider: NewChainProvider(providers...),
	}
}

// Load loads the complete configuration
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	// Load Database config
	cfg.Database = DatabaseConfig{
		Host:     l.getString(ctx, "DB_HOST", "localhost"),
		Port:     l.getString(ctx, "DB_PORT", "1433"),
		Database: l.getString(ctx, "DB_NAME", "SimplrPayGateway"),
		Username: l.getString(ctx, "DB_USER", "sqlgpt"),
		Password: l.getString(ctx, "DB_PASSWORD", ""),
	}

	// Load Redis config
	cfg.Redis = RedisConfig{
		Addr:     l.getString(ctx, "REDIS_ADDR", "localhost:6379"),
		Password: l.getString(ctx, "REDIS_PASSWORD", ""),
		DB:       l.getInt(ctx, "REDIS_DB", 0),
	}

	// Load OpenAI config
	cfg.OpenAI = OpenAIConfig{
		APIKey: l.getString(ctx, "OPENAI_API_KEY", ""),
		Model:  l.getString(ctx, "OPENAI_MODEL", "gpt-4o-mini"),
	}

	// Load Renderer config
	cfg.Renderer = RendererConfig{
		Endpoint: l.getString(ctx, "RENDERER_ENDPOINT", "http://localhost:9090"),
		Timeout:  l.getDuration(ctx, "RENDERER_TIMEOUT", 60*time.Second),
	}

	// Load Server config
	cfg.Server = ServerConfig{
		Port:    l.getString(ctx, "PORT", "8080"),
		GinMode: l.getString(ctx, "GIN_MODE", "debug"),
	}

	// Load Query config
	cfg.Query = QueryConfig{
		RequestTimeout: l.getDuration(ctx, "REQUEST_TIMEOUT", 120*time.Second),
		DBTimeout:      l.getDuration(ctx, "DB_TIMEOUT", 30*time.Second),
		RateLimit:      l.getInt(ctx, "RATE_LIMIT", 60),
	}

	// Load Audit config
	cfg.Audit = AuditConfig{
		Dir: l.getString(ctx, "AUDIT_LOG_DIR", "."),
	}

	return cfg, nil
}

// Helper methods for retrieving and parsing configuration values

func (l *Loader) getString(ctx context.Context, key, defaultValue string) string {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}
	return value
}

func (l *Loader) getInt(ctx context.Context, key string, defaultValue int) int {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func (l *Loader) getDuration(ctx context.Context, key string, defaultValue time.Duration) time.Duration {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// MustLoad loads configuration and panics on error
// Useful for application startup
func (l *Loader) MustLoad(ctx context.Context) *Config {
	cfg, err := l.Load(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
