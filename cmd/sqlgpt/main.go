package main

import (
	"context"
	"log"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/simplrtech/sqlgpt/internal/auditlog"
	"github.com/simplrtech/sqlgpt/internal/charts"
	"github.com/simplrtech/sqlgpt/internal/config"
	"github.com/simplrtech/sqlgpt/internal/llm"
	"github.com/simplrtech/sqlgpt/internal/observability"
	"github.com/simplrtech/sqlgpt/internal/server"
	"github.com/simplrtech/sqlgpt/internal/sqlgen"
	"github.com/simplrtech/sqlgpt/internal/store"
)

func main() {
	ctx := context.Background()

	// Load configuration (kubernetes secrets -> secret files -> env)
	cfg := config.NewDefaultLoader().MustLoad(ctx)
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration:\n", err)
	}

	gin.SetMode(cfg.Server.GinMode)
	logger := observability.NewLogger("main")

	// Initialize Redis client
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Initialize LLM client behind a circuit breaker
	openaiClient, err := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		log.Fatal("Failed to initialize LLM client:", err)
	}
	llmClient := llm.NewCircuitBreakerClient(openaiClient, "openai", llm.DefaultCircuitBreakerConfig)

	// Initialize SQL Server store
	salesStore, err := store.NewSQLServerStore(store.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		log.Fatal("Failed to initialize database store:", err)
	}
	defer salesStore.Close()

	// Initialize chart renderer client
	renderer := charts.NewSandboxRenderer(charts.SandboxConfig{
		Endpoint: cfg.Renderer.Endpoint,
		Timeout:  cfg.Renderer.Timeout,
	})

	// Initialize pipelines and audit log
	generator := sqlgen.NewGenerator(llmClient)
	pipeline := charts.NewPipeline(llmClient, salesStore, renderer)
	audit := auditlog.New(cfg.Audit.Dir)

	// Register health checks
	healthChecker := observability.NewHealthChecker()
	healthChecker.Register("database", observability.DatabaseHealthCheck(func(ctx context.Context) error {
		return salesStore.Ping(ctx)
	}))
	healthChecker.Register("redis", observability.RedisHealthCheck(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}))
	healthChecker.Register("memory", observability.MemoryHealthCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	}))

	// Assemble the HTTP server
	srv := server.NewServer(generator, salesStore, pipeline, audit)
	srv.SetHealthChecker(healthChecker)
	srv.SetRateLimiter(server.NewRateLimiter(rdb, cfg.Query.RateLimit))
	srv.SetRequestTimeout(cfg.Query.RequestTimeout)

	router := srv.SetupRoutes()

	logger.Info(ctx, "sqlgpt starting", map[string]interface{}{
		"port":     cfg.Server.Port,
		"model":    cfg.OpenAI.Model,
		"database": cfg.Database.Database,
	})
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Error(ctx, "Failed to start server", err, nil)
		log.Fatal("Failed to start server:", err)
	}
}
