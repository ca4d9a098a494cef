package charts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Renderer executes untrusted drawing code in an isolated sandbox and
// returns the resulting image, base64-encoded. The code is generated by
// the model and must never run in this process's address space.
type Renderer interface {
	Render(ctx context.Context, code string) (string, error)
}

// SandboxConfig holds configuration for the rendering sandbox service
type SandboxConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// SandboxRenderer calls an external rendering sandbox over HTTP. The
// sandbox runs the code with no filesystem or network access beyond
// producing the in-memory image, under its own resource limits.
type SandboxRenderer struct {
	endpoint string
	client   *http.Client
}

// NewSandboxRenderer creates a renderer client for the sandbox service
func NewSandboxRenderer(config SandboxConfig) *SandboxRenderer {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &SandboxRenderer{
		endpoint: config.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	Code string `json:"code"`
}

type renderResponse struct {
	ImageBase64 string `json:"image_base64"`
	Error       string `json:"error,omitempty"`
}

// Render submits drawing code to the sandbox and returns the base64 image
func (r *SandboxRenderer) Render(ctx context.Context, code string) (string, error) {
	requestBody, err := json.Marshal(renderRequest{Code: code})
	if err != nil {
		return "", fmt.Errorf("failed to marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.endpoint+"/render", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read render response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, string(body))
	}

	var response renderResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal render response: %w", err)
	}

	if response.Error != "" {
		return "", fmt.Errorf("renderer error: %s", response.Error)
	}

	if response.ImageBase64 == "" {
		return "", fmt.Errorf("renderer produced no image")
	}

	return response.ImageBase64, nil
}
