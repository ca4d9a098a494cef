// Package errors provides enhanced error types with helpful context and suggestions
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// SQL generation errors
	ErrCodeGenerationFailed ErrorCode = "SQL_GENERATION_FAILED"
	ErrCodeNoStatementFound ErrorCode = "NO_SQL_STATEMENT_FOUND"
	ErrCodePromptBuilding   ErrorCode = "PROMPT_BUILD_FAILED"

	// Safety errors
	ErrCodeSafetyRejected ErrorCode = "SAFETY_REJECTED"
	ErrCodeScopeViolation ErrorCode = "SCOPE_VIOLATION"

	// Database errors
	ErrCodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecution     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeEmptyResult        ErrorCode = "EMPTY_QUERY_RESULT"

	// Chart pipeline errors
	ErrCodeChartPlanning ErrorCode = "CHART_PLANNING_FAILED"
	ErrCodeChartCodeGen  ErrorCode = "CHART_CODE_GENERATION_FAILED"
	ErrCodeChartRender   ErrorCode = "CHART_RENDER_FAILED"

	// Input validation errors
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"

	// Infrastructure errors
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	ErrCodeAuditLog    ErrorCode = "AUDIT_LOG_WRITE_FAILED"
)

// EnhancedError represents an error with additional context and helpful information
type EnhancedError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Details != "" {
		sb.WriteString(fmt.Sprintf(": %s", e.Details))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" (cause: %v)", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain unwrapping
func (e *EnhancedError) Unwrap() error {
	return e.Cause
}

// New creates a new EnhancedError
func New(code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:     code,
		Message:  message,
		Metadata: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with enhanced context
func Wrap(err error, code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:     code,
		Message:  message,
		Cause:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithDetails adds detailed information about the error
func (e *EnhancedError) WithDetails(details string) *EnhancedError {
	e.Details = details
	return e
}

// WithSuggestion adds a suggestion on how to fix the error
func (e *EnhancedError) WithSuggestion(suggestion string) *EnhancedError {
	e.Suggestion = suggestion
	return e
}

// WithMetadata adds additional metadata to the error
func (e *EnhancedError) WithMetadata(key string, value interface{}) *EnhancedError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the error code from an error, unwrapping as needed,
// or "" for plain errors
func CodeOf(err error) ErrorCode {
	var enhanced *EnhancedError
	if stderrors.As(err, &enhanced) {
		return enhanced.Code
	}
	return ""
}

// Common error constructors with pre-configured messages

// NewSafetyRejectedError flags a generated statement that is not read-only
func NewSafetyRejectedError(sql string) *EnhancedError {
	return New(ErrCodeSafetyRejected, "Data-modifying queries are not allowed for security reasons.").
		WithDetails("The generated SQL statement was classified as data-modifying or could not be classified as a read query").
		WithSuggestion("We recommend modifying your question so it only reads data.").
		WithMetadata("sql", sql)
}

// NewScopeViolationError flags a statement that ignores the territory scope
func NewScopeViolationError(column string) *EnhancedError {
	return New(ErrCodeScopeViolation, "Generated query does not respect the territory scope").
		WithDetails(fmt.Sprintf("The statement does not reference the required scope column '%s'", column)).
		WithSuggestion("Rephrase your question; results must be restricted to your sales territories.")
}

// NewGenerationFailedError wraps a model call that produced no usable SQL
func NewGenerationFailedError(err error) *EnhancedError {
	return Wrap(err, ErrCodeGenerationFailed, "Failed to generate a SQL query").
		WithDetails("The AI was unable to convert your natural language question into SQL").
		WithSuggestion("Try rephrasing your question or being more specific about the data you want.")
}

// NewNoStatementFoundError reports a model response with no fenced SQL block
func NewNoStatementFoundError() *EnhancedError {
	return New(ErrCodeNoStatementFound, "No SQL statement found in model response").
		WithDetails("The model response did not contain a tagged SQL code block").
		WithSuggestion("Try your question again; the model occasionally returns malformed output.").
		WithMetadata("retryable", true)
}

// NewDatabaseConnectionError creates an error for database connection failures
func NewDatabaseConnectionError(err error) *EnhancedError {
	return Wrap(err, ErrCodeDatabaseConnection, "Database connection failed").
		WithDetails("Unable to connect to the sales database").
		WithSuggestion("This is an internal server error. Please try again in a moment.").
		WithMetadata("retryable", true)
}

// NewQueryExecutionError creates an error for SQL execution failures
func NewQueryExecutionError(err error, sql string) *EnhancedError {
	return Wrap(err, ErrCodeQueryExecution, "Query execution failed").
		WithDetails("The generated SQL statement failed to execute against the sales database").
		WithMetadata("sql", sql)
}

// NewEmptyResultError names the query that matched no rows
func NewEmptyResultError(sql string) *EnhancedError {
	return New(ErrCodeEmptyResult, fmt.Sprintf("No results for query: %s", sql)).
		WithMetadata("sql", sql)
}

// NewChartPlanningError wraps a failed chart planning call
func NewChartPlanningError(err error) *EnhancedError {
	return Wrap(err, ErrCodeChartPlanning, "Failed to plan charts").
		WithDetails("The AI was unable to produce chart types and SQL queries for your request").
		WithSuggestion("Try describing the visualisation you want in more detail.")
}

// NewChartCodeGenError wraps a failed drawing-code generation call
func NewChartCodeGenError(err error, chartType string) *EnhancedError {
	return Wrap(err, ErrCodeChartCodeGen, "Failed to generate chart drawing code").
		WithDetails(fmt.Sprintf("The AI could not produce drawing code for a '%s' chart", chartType)).
		WithMetadata("chart_type", chartType)
}

// NewChartRenderError wraps a renderer failure for a single chart
func NewChartRenderError(err error, chartType string) *EnhancedError {
	return Wrap(err, ErrCodeChartRender, "Failed to render chart").
		WithDetails(fmt.Sprintf("The rendering sandbox could not produce a '%s' chart image", chartType)).
		WithMetadata("chart_type", chartType)
}

// NewMissingFieldError creates an error for a missing required request field
func NewMissingFieldError(field string) *EnhancedError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field)).
		WithMetadata("field", field)
}

// NewInvalidInputError creates an error for invalid input
func NewInvalidInputError(field string, reason string) *EnhancedError {
	return New(ErrCodeInvalidInput, "Invalid input").
		WithDetails(fmt.Sprintf("Field '%s' is invalid: %s", field, reason)).
		WithSuggestion("Please check the API documentation for the expected format and try again.")
}
