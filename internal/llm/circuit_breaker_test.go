package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingClient always returns the configured error
type failingClient struct {
	err error
}

func (f *failingClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: "ok"}, nil
}

func (f *failingClient) CompleteStructured(ctx context.Context, prompt string, schema Schema) (*StructuredCompletion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &StructuredCompletion{Content: []byte(`{}`)}, nil
}

// TestCircuitBreakerPassesThrough tests normal operation
func TestCircuitBreakerPassesThrough(t *testing.T) {
	cb := NewCircuitBreakerClient(&failingClient{}, "test", DefaultCircuitBreakerConfig)

	completion, err := cb.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

// TestCircuitBreakerOpensAfterFailures tests that repeated failures trip
// the breaker and further calls are rejected without reaching the client
func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	config := DefaultCircuitBreakerConfig
	config.OnStateChange = nil

	cb := NewCircuitBreakerClient(&failingClient{err: fmt.Errorf("connection refused")}, "test", config)

	// With nothing but failures the ratio threshold trips the breaker
	// as soon as the minimum request count is reached
	for i := 0; i < 3; i++ {
		_, err := cb.Complete(context.Background(), "hello")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

// TestCircuitBreakerStructuredCalls tests that structured calls share the
// same breaker
func TestCircuitBreakerStructuredCalls(t *testing.T) {
	config := DefaultCircuitBreakerConfig
	config.OnStateChange = nil

	cb := NewCircuitBreakerClient(&failingClient{err: fmt.Errorf("connection refused")}, "test", config)

	for i := 0; i < 3; i++ {
		_, err := cb.CompleteStructured(context.Background(), "hello", Schema{Name: "s"})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
