// Package auditlog writes the append-only daily CSV audit trail: one
// file per calendar day recording each request's queries, results,
// token usage and derived cost. Write-only; nothing reads it back.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Token prices for the generation model plus fixed conversion rates for
// the cost columns
const (
	usdPerPromptToken     = 0.00000015
	usdPerCompletionToken = 0.00000060
	usdToSGD              = 1.35
	usdToINR              = 87
)

// header is the fixed column set of every daily file
var header = []string{
	"Date", "Natural Query", "SQL Query", "SQL Result", "SQL Description",
	"Input Tokens", "Output Tokens", "Total Tokens", "Error",
	"Total Cost (USD)", "Total Cost (SGD)", "Total Cost (INR)",
}

// Entry is one audit record. Zero-valued fields are written as empty
// columns, so error-only entries and full request entries share a shape.
type Entry struct {
	NaturalQuery     string
	SQLQuery         string
	SQLResult        string
	Description      string
	PromptTokens     int
	CompletionTokens int
	Error            string
}

// Logger appends entries to the current day's CSV file. Writes are
// serialized so concurrent requests never interleave records.
type Logger struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New creates an audit logger writing daily files under dir
func New(dir string) *Logger {
	return &Logger{
		dir: dir,
		now: time.Now,
	}
}

// WithClock overrides the clock; used by tests to pin the file name
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Log appends one entry to today's file, creating it with a header row
// when needed
func (l *Logger) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	path := filepath.Join(l.dir, fmt.Sprintf("logs_%s.csv", now.Format("2006-01-02")))

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat audit log file: %w", err)
	}

	writer := csv.NewWriter(file)

	if info.Size() == 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write audit log header: %w", err)
		}
	}

	usdCost := float64(entry.PromptTokens)*usdPerPromptToken + float64(entry.CompletionTokens)*usdPerCompletionToken

	record := []string{
		now.Format("2006-01-02 15:04:05"),
		entry.NaturalQuery,
		entry.SQLQuery,
		entry.SQLResult,
		entry.Description,
		strconv.Itoa(entry.PromptTokens),
		strconv.Itoa(entry.CompletionTokens),
		strconv.Itoa(entry.PromptTokens + entry.CompletionTokens),
		entry.Error,
		strconv.FormatFloat(usdCost, 'f', -1, 64),
		strconv.FormatFloat(usdCost*usdToSGD, 'f', -1, 64),
		strconv.FormatFloat(usdCost*usdToINR, 'f', -1, 64),
	}

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write audit log record: %w", err)
	}

	writer.Flush()
	return writer.Error()
}
