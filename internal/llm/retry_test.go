package llm

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestIsRetryableError tests transport error classification
func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "rate limit", err: fmt.Errorf("rate limit exceeded: try later"), want: true},
		{name: "internal error", err: fmt.Errorf("OpenAI API internal error: oops"), want: true},
		{name: "bad gateway", err: fmt.Errorf("API error 502: upstream"), want: true},
		{name: "timeout", err: fmt.Errorf("context deadline exceeded"), want: true},
		{name: "connection refused", err: fmt.Errorf("dial tcp: connection refused"), want: true},
		{name: "invalid API key", err: fmt.Errorf("invalid API key: nope"), want: false},
		{name: "bad request", err: fmt.Errorf("bad request: malformed schema"), want: false},
		{name: "unknown error", err: fmt.Errorf("something else entirely"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

// TestCalculateBackoff tests exponential backoff bounds
func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	max := 5 * time.Second

	for attempt := 0; attempt < 10; attempt++ {
		delay := calculateBackoff(attempt, base, max)

		// jitter scales the raw delay by a factor in [0.5, 1.5]
		assert.GreaterOrEqual(t, delay, time.Duration(float64(base)*0.5),
			"attempt %d produced a delay below the jitter floor", attempt)
		assert.LessOrEqual(t, delay, time.Duration(float64(max)*1.5),
			"attempt %d produced a delay above the jitter ceiling", attempt)
	}
}

// TestIsHTTPStatusRetryable tests status code classification
func TestIsHTTPStatusRetryable(t *testing.T) {
	assert.True(t, isHTTPStatusRetryable(429))
	assert.True(t, isHTTPStatusRetryable(500))
	assert.True(t, isHTTPStatusRetryable(502))
	assert.True(t, isHTTPStatusRetryable(503))
	assert.True(t, isHTTPStatusRetryable(504))
	assert.False(t, isHTTPStatusRetryable(200))
	assert.False(t, isHTTPStatusRetryable(400))
	assert.False(t, isHTTPStatusRetryable(401))
	assert.False(t, isHTTPStatusRetryable(404))
}
