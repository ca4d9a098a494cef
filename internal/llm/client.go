package llm

import (
	"context"
	"encoding/json"
)

// Usage holds the token counts reported by the model for one call.
// It is a pass-through side channel for cost accounting and never
// participates in control flow.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add combines usage from multiple calls
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
	}
}

// Completion is a free-text model response
type Completion struct {
	Text  string
	Usage Usage
}

// StructuredCompletion is a schema-constrained model response. Content
// is the raw JSON object the model produced.
type StructuredCompletion struct {
	Content json.RawMessage
	Usage   Usage
}

// Schema describes a JSON schema the model output must conform to
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Client interface for AI service integration
type Client interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
	CompleteStructured(ctx context.Context, prompt string, schema Schema) (*StructuredCompletion, error)
}

// Config holds configuration for LLM clients
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   int
	MaxTokens int
}
