package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	DefaultModel  = "gpt-4o-mini"
	Temperature   = 0.1 // Low temperature for consistent SQL generation
)

// OpenAIClient implements the Client interface using the OpenAI chat completions API
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// OpenAI API request structures
type ChatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature,omitempty"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat constrains the model to structured JSON output
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

type JSONSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

// OpenAI API response structures
type ChatResponse struct {
	ID      string      `json:"id"`
	Object  string      `json:"object"`
	Model   string      `json:"model"`
	Choices []Choice    `json:"choices"`
	Usage   tokenCounts `json:"usage"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type tokenCounts struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Error response structure
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type APIErrorResponse struct {
	Error APIError `json:"error"`
}

// NewOpenAIClient creates a new OpenAI chat completions client
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if model == "" {
		model = DefaultModel
	}

	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: OpenAIBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// WithBaseURL overrides the API base URL, used for testing against a stub server
func (c *OpenAIClient) WithBaseURL(baseURL string) *OpenAIClient {
	c.baseURL = baseURL
	return c
}

// Complete sends a free-text prompt and returns the model's text response.
// The request is issued once per call; malformed model output is never
// regenerated here, only transport failures are retried.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	request := ChatRequest{
		Model:       c.model,
		Temperature: Temperature,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	}

	response, err := c.sendChatRequestWithRetry(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenAI: %w", err)
	}

	text, usage, err := c.parseChatResponse(response)
	if err != nil {
		return nil, err
	}

	return &Completion{Text: text, Usage: usage}, nil
}

// CompleteStructured sends a prompt with a JSON schema constraint and
// returns the raw JSON object the model produced
func (c *OpenAIClient) CompleteStructured(ctx context.Context, prompt string, schema Schema) (*StructuredCompletion, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   schema.Name,
				Schema: schema.Definition,
			},
		},
	}

	response, err := c.sendChatRequestWithRetry(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenAI: %w", err)
	}

	text, usage, err := c.parseChatResponse(response)
	if err != nil {
		return nil, err
	}

	// The content must be a JSON object matching the declared schema
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("model returned invalid JSON for schema %q", schema.Name)
	}

	return &StructuredCompletion{Content: json.RawMessage(text), Usage: usage}, nil
}

// sendChatRequest handles the HTTP communication with the OpenAI API
func (c *OpenAIClient) sendChatRequest(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp.StatusCode, body)
	}

	var chatResponse ChatResponse
	if err := json.Unmarshal(body, &chatResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &chatResponse, nil
}

// parseChatResponse extracts the message content and token usage
func (c *OpenAIClient) parseChatResponse(response *ChatResponse) (string, Usage, error) {
	if len(response.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("model response contained no choices")
	}

	usage := Usage{
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
	}

	return response.Choices[0].Message.Content, usage, nil
}

// handleAPIError processes OpenAI API errors
func (c *OpenAIClient) handleAPIError(statusCode int, body []byte) error {
	var errorResponse APIErrorResponse
	if err := json.Unmarshal(body, &errorResponse); err != nil {
		return fmt.Errorf("API error %d: %s", statusCode, string(body))
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("invalid API key: %s", errorResponse.Error.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded: %s", errorResponse.Error.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s", errorResponse.Error.Message)
	case http.StatusInternalServerError:
		return fmt.Errorf("OpenAI API internal error: %s", errorResponse.Error.Message)
	default:
		return fmt.Errorf("OpenAI API error %d: %s", statusCode, errorResponse.Error.Message)
	}
}
