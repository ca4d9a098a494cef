package auditlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

// TestLog tests daily file creation, header writing and record layout
func TestLog(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	logger := New(dir).WithClock(fixedClock(clock))

	err := logger.Log(Entry{
		NaturalQuery:     "show total revenue",
		SQLQuery:         "SELECT SUM(TotalAmt) FROM InvoiceView",
		SQLResult:        "Here are the results:\nRow 1: [Total: 125000]\n",
		Description:      "The total revenue is 125000.",
		PromptTokens:     1000,
		CompletionTokens: 200,
	})
	require.NoError(t, err)

	path := filepath.Join(dir, "logs_2026-09-01.csv")
	records := readRecords(t, path)
	require.Len(t, records, 2)

	assert.Equal(t, header, records[0])

	record := records[1]
	assert.Equal(t, "2026-09-01 10:30:00", record[0])
	assert.Equal(t, "show total revenue", record[1])
	assert.Equal(t, "SELECT SUM(TotalAmt) FROM InvoiceView", record[2])
	assert.Equal(t, "The total revenue is 125000.", record[4])
	assert.Equal(t, "1000", record[5])
	assert.Equal(t, "200", record[6])
	assert.Equal(t, "1200", record[7])
	assert.Empty(t, record[8])

	// cost columns: USD from the per-token prices, SGD and INR converted
	usd, err := strconv.ParseFloat(record[9], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1000*0.00000015+200*0.00000060, usd, 1e-12)

	sgd, err := strconv.ParseFloat(record[10], 64)
	require.NoError(t, err)
	assert.InDelta(t, usd*1.35, sgd, 1e-12)

	inr, err := strconv.ParseFloat(record[11], 64)
	require.NoError(t, err)
	assert.InDelta(t, usd*87, inr, 1e-12)
}

// TestLogAppends tests that the header is only written once per file
func TestLogAppends(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	logger := New(dir).WithClock(fixedClock(clock))

	require.NoError(t, logger.Log(Entry{NaturalQuery: "first"}))
	require.NoError(t, logger.Log(Entry{NaturalQuery: "second"}))

	records := readRecords(t, filepath.Join(dir, "logs_2026-09-01.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[1][1])
	assert.Equal(t, "second", records[2][1])
}

// TestLogRollsDaily tests that entries land in per-day files
func TestLogRollsDaily(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir)

	logger.WithClock(fixedClock(time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)))
	require.NoError(t, logger.Log(Entry{NaturalQuery: "before midnight"}))

	logger.WithClock(fixedClock(time.Date(2026, 9, 2, 0, 1, 0, 0, time.UTC)))
	require.NoError(t, logger.Log(Entry{NaturalQuery: "after midnight"}))

	first := readRecords(t, filepath.Join(dir, "logs_2026-09-01.csv"))
	second := readRecords(t, filepath.Join(dir, "logs_2026-09-02.csv"))
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, "before midnight", first[1][1])
	assert.Equal(t, "after midnight", second[1][1])
}

// TestLogErrorEntry tests the error-only record shape
func TestLogErrorEntry(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir).WithClock(fixedClock(time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)))

	require.NoError(t, logger.Log(Entry{
		NaturalQuery: "show revenue",
		Error:        "connection refused",
	}))

	records := readRecords(t, filepath.Join(dir, "logs_2026-09-01.csv"))
	record := records[1]
	assert.Equal(t, "show revenue", record[1])
	assert.Empty(t, record[2])
	assert.Equal(t, "0", record[5])
	assert.Equal(t, "connection refused", record[8])
	assert.Equal(t, "0", record[9])
}
