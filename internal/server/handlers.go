package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simplrtech/sqlgpt/internal/auditlog"
	"github.com/simplrtech/sqlgpt/internal/errors"
	"github.com/simplrtech/sqlgpt/internal/observability"
	"github.com/simplrtech/sqlgpt/internal/sqlgen"
	"github.com/simplrtech/sqlgpt/internal/store"
)

// noDataResult is substituted for the SQL result when a query matches
// no rows. The description step still runs so the caller gets a
// conversational answer instead of an error.
const noDataResult = "No data found for the query."

// safetyWarning accompanies every 403 so the caller can tell a policy
// rejection apart from a generic failure.
const safetyWarning = "Potential SQL injection detected. We recommend modifying your query to read-only."

// QueryPayload is the request body for POST /sqlgpt/query. Pointer
// fields distinguish an absent key from an empty value: an empty
// territory list is a valid request, a missing one is not.
type QueryPayload struct {
	Query       *string   `json:"query"`
	TerritoryID *[]string `json:"territory_id"`
	CustomerNo  []string  `json:"customer_no"`
}

// ChartPayload is the request body for POST /sqlgpt/generate_charts
type ChartPayload struct {
	Query            string `json:"query"`
	SalesTerritoryID string `json:"sales_territory_id"`
}

func (s *Server) handleQuery(c *gin.Context) {
	start := time.Now()

	var payload QueryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	if payload.Query == nil || strings.TrimSpace(*payload.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	if payload.TerritoryID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Territory ID is required"})
		return
	}

	naturalQuery := *payload.Query

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()

	stmt, err := s.generator.Generate(ctx, sqlgen.QueryRequest{
		Query:       naturalQuery,
		Territories: *payload.TerritoryID,
		Customers:   payload.CustomerNo,
	})
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.ErrCodeSafetyRejected, errors.ErrCodeScopeViolation:
			observability.RecordQueryMetrics(time.Since(start), false, "safety_rejected")
			c.JSON(http.StatusForbidden, gin.H{
				"warning": safetyWarning,
				"error":   "Data-modifying queries are not allowed for security reasons.",
			})
		default:
			s.failQuery(c, ctx, naturalQuery, start, err)
		}
		return
	}

	var sqlResult string
	result, err := s.executor.Execute(ctx, stmt.SQL)
	switch {
	case stderrors.Is(err, store.ErrNoRows):
		sqlResult = noDataResult
	case err != nil:
		s.failQuery(c, ctx, naturalQuery, start, err)
		return
	default:
		sqlResult = result.Formatted()
	}

	described, describeUsage, err := s.generator.DescribeResult(ctx, naturalQuery, sqlResult)
	if err != nil {
		s.failQuery(c, ctx, naturalQuery, start, err)
		return
	}

	usage := stmt.Usage.Add(describeUsage)
	if err := s.audit.Log(auditlog.Entry{
		NaturalQuery:     naturalQuery,
		SQLQuery:         stmt.SQL,
		SQLResult:        sqlResult,
		Description:      described,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	}); err != nil {
		// The audit log is best effort, never a reason to fail a
		// request that already produced a result
		s.logger.Warn(ctx, "Audit log write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	observability.RecordQueryMetrics(time.Since(start), true, "")
	c.JSON(http.StatusOK, gin.H{
		"sql_query":        stmt.SQL,
		"sql_result":       sqlResult,
		"described_result": described,
	})
}

// failQuery logs, audits and answers a failed query request with 500
func (s *Server) failQuery(c *gin.Context, ctx context.Context, naturalQuery string, start time.Time, err error) {
	s.logger.Error(ctx, "Query request failed", err, map[string]interface{}{
		"natural_query": naturalQuery,
	})
	if auditErr := s.audit.Log(auditlog.Entry{
		NaturalQuery: naturalQuery,
		Error:        err.Error(),
	}); auditErr != nil {
		s.logger.Warn(ctx, "Audit log write failed", map[string]interface{}{
			"error": auditErr.Error(),
		})
	}

	observability.RecordQueryMetrics(time.Since(start), false, string(errors.CodeOf(err)))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"details": errorDetails(err),
	})
}

func (s *Server) handleGenerateCharts(c *gin.Context) {
	var payload ChartPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Query == "" || payload.SalesTerritoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'query' or 'sales_territory_id' in request."})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()

	artifacts, usage, err := s.charts.Run(ctx, payload.Query, payload.SalesTerritoryID)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeEmptyResult {
			// One empty query result invalidates the whole batch; the
			// error message names the offending statement
			c.JSON(http.StatusBadRequest, gin.H{"error": errorDetails(err)})
			return
		}

		s.logger.Error(ctx, "Chart request failed", err, map[string]interface{}{
			"natural_query": payload.Query,
		})
		if auditErr := s.audit.Log(auditlog.Entry{
			NaturalQuery: payload.Query,
			Error:        err.Error(),
		}); auditErr != nil {
			s.logger.Warn(ctx, "Audit log write failed", map[string]interface{}{
				"error": auditErr.Error(),
			})
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": errorDetails(err),
		})
		return
	}

	queries := make([]string, 0, len(artifacts))
	texts := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		queries = append(queries, artifact.SQLQuery)
		texts = append(texts, artifact.Text)
	}
	if err := s.audit.Log(auditlog.Entry{
		NaturalQuery:     payload.Query,
		SQLQuery:         strings.Join(queries, "\n"),
		Description:      strings.Join(texts, "\n"),
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	}); err != nil {
		s.logger.Warn(ctx, "Audit log write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.JSON(http.StatusOK, artifacts)
}

// errorDetails prefers the user-facing message of an EnhancedError over
// its full chain, which may leak internals
func errorDetails(err error) string {
	var enhanced *errors.EnhancedError
	if stderrors.As(err, &enhanced) {
		return enhanced.Message
	}
	return err.Error()
}
