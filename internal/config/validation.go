package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation error(s):\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate performs comprehensive validation on the configuration
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateRedis()...)
	errors = append(errors, c.validateOpenAI()...)
	errors = append(errors, c.validateRenderer()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateQuery()...)

	if errors.HasErrors() {
		return errors
	}

	return nil
}

func (c *Config) validateDatabase() []ValidationError {
	var errors []ValidationError

	if c.Database.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "Database.Host",
			Message: "database host is required",
		})
	}

	if c.Database.Port == "" {
		errors = append(errors, ValidationError{
			Field:   "Database.Port",
			Message: "database port is required",
		})
	}

	if c.Database.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "Database.Database",
			Message: "database name is required",
		})
	}

	if c.Database.Username == "" {
		errors = append(errors, ValidationError{
			Field:   "Database.Username",
			Message: "database username is required",
		})
	}

	return errors
}

func (c *Config) validateRedis() []ValidationError {
	var errors []ValidationError

	if c.Redis.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "Redis.Addr",
			Message: "redis address is required",
		})
	}

	return errors
}

func (c *Config) validateOpenAI() []ValidationError {
	var errors []ValidationError

	if c.OpenAI.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "OpenAI.APIKey",
			Message: "OpenAI API key is required",
		})
	}

	if c.OpenAI.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "OpenAI.Model",
			Message: "OpenAI model name is required",
		})
	}

	return errors
}

func (c *Config) validateRenderer() []ValidationError {
	var errors []ValidationError

	if c.Renderer.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "Renderer.Endpoint",
			Message: "renderer endpoint is required",
		})
	} else if !strings.HasPrefix(c.Renderer.Endpoint, "http://") && !strings.HasPrefix(c.Renderer.Endpoint, "https://") {
		errors = append(errors, ValidationError{
			Field:   "Renderer.Endpoint",
			Message: "renderer endpoint must be an http or https URL",
		})
	}

	if c.Renderer.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "Renderer.Timeout",
			Message: "renderer timeout must be positive",
		})
	}

	return errors
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if c.Server.Port == "" {
		errors = append(errors, ValidationError{
			Field:   "Server.Port",
			Message: "server port is required",
		})
	}

	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		errors = append(errors, ValidationError{
			Field:   "Server.GinMode",
			Message: "gin mode must be one of: debug, release, test",
		})
	}

	return errors
}

func (c *Config) validateQuery() []ValidationError {
	var errors []ValidationError

	if c.Query.RequestTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "Query.RequestTimeout",
			Message: "request timeout must be positive",
		})
	}

	if c.Query.DBTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "Query.DBTimeout",
			Message: "database timeout must be positive",
		})
	}

	if c.Query.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "Query.RateLimit",
			Message: "rate limit cannot be negative",
		})
	}

	return errors
}
