// Package server exposes the HTTP surface: natural-language query
// conversion, chart generation, health and metrics endpoints.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simplrtech/sqlgpt/internal/auditlog"
	"github.com/simplrtech/sqlgpt/internal/charts"
	"github.com/simplrtech/sqlgpt/internal/observability"
	"github.com/simplrtech/sqlgpt/internal/sqlgen"
	"github.com/simplrtech/sqlgpt/internal/store"
)

// DefaultRequestTimeout bounds a single request end to end, covering
// both model calls and the database round trip.
const DefaultRequestTimeout = 120 * time.Second

// Server wires the SQL generator, database executor, chart pipeline and
// audit log behind the HTTP routes.
type Server struct {
	generator      *sqlgen.Generator
	executor       store.Executor
	charts         *charts.Pipeline
	audit          *auditlog.Logger
	limiter        *RateLimiter
	healthChecker  *observability.HealthChecker
	logger         *observability.Logger
	requestTimeout time.Duration
}

// NewServer creates a server with the given collaborators
func NewServer(generator *sqlgen.Generator, executor store.Executor, pipeline *charts.Pipeline, audit *auditlog.Logger) *Server {
	return &Server{
		generator:      generator,
		executor:       executor,
		charts:         pipeline,
		audit:          audit,
		logger:         observability.NewLogger("server"),
		requestTimeout: DefaultRequestTimeout,
	}
}

// SetRateLimiter attaches a rate limiter applied to the query and chart routes
func (s *Server) SetRateLimiter(limiter *RateLimiter) {
	s.limiter = limiter
}

// SetHealthChecker attaches the health checker used by the /health endpoint
func (s *Server) SetHealthChecker(healthChecker *observability.HealthChecker) {
	s.healthChecker = healthChecker
}

// SetRequestTimeout overrides the per-request deadline
func (s *Server) SetRequestTimeout(timeout time.Duration) {
	s.requestTimeout = timeout
}

// SetupRoutes configures the HTTP routes and middleware
func (s *Server) SetupRoutes() *gin.Engine {
	r := gin.New()

	r.Use(observability.RecoveryMiddleware(s.logger))
	r.Use(observability.RequestLoggingMiddleware(s.logger))
	r.Use(observability.CORSMiddleware())

	r.GET("/health", s.handleHealth)

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"metrics":   observability.GetGlobalMetrics().GetAll(),
			"timestamp": time.Now(),
		})
	})

	api := r.Group("/sqlgpt")
	if s.limiter != nil {
		api.Use(s.limiter.Middleware())
	}
	{
		api.GET("", s.handleRoot)
		api.POST("/query", s.handleQuery)
		api.POST("/generate_charts", s.handleGenerateCharts)
	}

	return r
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "APP running successfully"})
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.healthChecker == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "sqlgpt",
		})
		return
	}

	response := s.healthChecker.GetHealthResponse(c.Request.Context())
	statusCode := http.StatusOK
	if response.Status == observability.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}
