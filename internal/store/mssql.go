// Package store executes approved SQL statements against the sales
// database (SQL Server) and renders results in a human-readable form.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/simplrtech/sqlgpt/internal/errors"
	"github.com/simplrtech/sqlgpt/internal/observability"
)

// ErrNoRows reports that a statement executed successfully but matched
// zero rows. Callers must distinguish it from execution errors: the
// chart flow elevates it to a request failure, the single-query flow
// substitutes a fixed "no data" message.
var ErrNoRows = stderrors.New("query returned no rows")

// Executor is the database collaborator interface consumed by the
// pipelines; it exists so the orchestrators are testable without a
// SQL Server instance.
type Executor interface {
	Execute(ctx context.Context, query string) (*QueryResult, error)
}

// Config holds SQL Server connection configuration
type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
}

// QueryResult holds an ordered result set with values rendered as strings
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// Formatted renders the result as the "Row N: [col: val, ...]" block the
// description prompt and the audit log both consume
func (r *QueryResult) Formatted() string {
	var sb strings.Builder
	sb.WriteString("Here are the results:\n")
	for i, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("Row %d: [", i+1))
		for j, col := range r.Columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %s", col, row[j]))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

// SQLServerStore implements Executor against SQL Server
type SQLServerStore struct {
	db *sql.DB
}

// NewSQLServerStore opens a connection pool to the sales database
func NewSQLServerStore(config Config) (*SQLServerStore, error) {
	dsn := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.Username, config.Password),
		Host:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		RawQuery: url.Values{"database": {config.Database}}.Encode(),
	}

	db, err := sql.Open("sqlserver", dsn.String())
	if err != nil {
		return nil, errors.NewDatabaseConnectionError(err)
	}

	if err := db.Ping(); err != nil {
		return nil, errors.NewDatabaseConnectionError(err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SQLServerStore{db: db}, nil
}

// NewSQLServerStoreFromDB wraps an existing database handle; used by tests
func NewSQLServerStoreFromDB(db *sql.DB) *SQLServerStore {
	return &SQLServerStore{db: db}
}

// Ping tests the database connection
func (s *SQLServerStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLServerStore) Close() error {
	return s.db.Close()
}

// Execute runs one approved statement and returns its rows. A statement
// that matches nothing returns ErrNoRows; execution failures come back
// as errors, never as a result value.
func (s *SQLServerStore) Execute(ctx context.Context, query string) (*QueryResult, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		observability.RecordDBMetrics("execute", time.Since(start), err)
		return nil, errors.NewQueryExecutionError(err, query)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewQueryExecutionError(err, query)
	}

	result := &QueryResult{Columns: columns}

	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.NewQueryExecutionError(err, query)
		}

		rendered := make([]string, len(columns))
		for i, value := range values {
			rendered[i] = formatValue(value)
		}
		result.Rows = append(result.Rows, rendered)
	}

	if err := rows.Err(); err != nil {
		observability.RecordDBMetrics("execute", time.Since(start), err)
		return nil, errors.NewQueryExecutionError(err, query)
	}

	observability.RecordDBMetrics("execute", time.Since(start), nil)

	if len(result.Rows) == 0 {
		return nil, ErrNoRows
	}

	return result, nil
}

// formatValue renders a scanned database value for the textual result block
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case float64:
		// Trim the trailing zeros Go's %v would keep for whole floats
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
