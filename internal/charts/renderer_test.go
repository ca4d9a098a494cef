package charts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSandboxRendererRender tests the sandbox HTTP client
func TestSandboxRendererRender(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		response    renderResponse
		wantImage   string
		wantErr     bool
		errContains string
	}{
		{
			name:      "successful render",
			status:    http.StatusOK,
			response:  renderResponse{ImageBase64: "aW1hZ2U="},
			wantImage: "aW1hZ2U=",
		},
		{
			name:        "sandbox reports an execution error",
			status:      http.StatusOK,
			response:    renderResponse{Error: "NameError: name 'plt' is not defined"},
			wantErr:     true,
			errContains: "NameError",
		},
		{
			name:        "sandbox returns empty image",
			status:      http.StatusOK,
			response:    renderResponse{},
			wantErr:     true,
			errContains: "no image",
		},
		{
			name:        "non-200 status fails",
			status:      http.StatusInternalServerError,
			wantErr:     true,
			errContains: "status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/render", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var req renderRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "plt.plot()", req.Code)

				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			renderer := NewSandboxRenderer(SandboxConfig{Endpoint: server.URL})

			image, err := renderer.Render(context.Background(), "plt.plot()")

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantImage, image)
		})
	}
}
