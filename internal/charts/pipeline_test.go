package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/simplrtech/sqlgpt/internal/errors"
	"github.com/simplrtech/sqlgpt/internal/llm"
	"github.com/simplrtech/sqlgpt/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient answers the planning call and the per-chart code calls
// with canned structured responses, keyed on the requested schema
type stubClient struct {
	planJSON    string
	planErr     error
	codeForType func(prompt string) string
	codeErr     error
}

func (s *stubClient) Complete(ctx context.Context, prompt string) (*llm.Completion, error) {
	return nil, fmt.Errorf("unexpected free-text call")
}

func (s *stubClient) CompleteStructured(ctx context.Context, prompt string, schema llm.Schema) (*llm.StructuredCompletion, error) {
	switch schema.Name {
	case chartPlanSchema.Name:
		if s.planErr != nil {
			return nil, s.planErr
		}
		return &llm.StructuredCompletion{
			Content: json.RawMessage(s.planJSON),
			Usage:   llm.Usage{PromptTokens: 200, CompletionTokens: 50},
		}, nil
	case codeGenSchema.Name:
		if s.codeErr != nil {
			return nil, s.codeErr
		}
		code := "plt.plot()"
		if s.codeForType != nil {
			code = s.codeForType(prompt)
		}
		payload, _ := json.Marshal(renderArtifact{Code: code, Text: "A chart of " + code})
		return &llm.StructuredCompletion{
			Content: payload,
			Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 30},
		}, nil
	}
	return nil, fmt.Errorf("unknown schema %q", schema.Name)
}

// stubExecutor returns canned results per statement. Charts execute
// concurrently, so call recording is guarded.
type stubExecutor struct {
	results map[string]*store.QueryResult
	errs    map[string]error
	mu      sync.Mutex
	calls   []string
}

func (s *stubExecutor) Execute(ctx context.Context, query string) (*store.QueryResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	if result, ok := s.results[query]; ok {
		return result, nil
	}
	return &store.QueryResult{Columns: []string{"n"}, Rows: [][]string{{"1"}}}, nil
}

// stubRenderer renders code to a deterministic fake image
type stubRenderer struct {
	err error
}

func (s *stubRenderer) Render(ctx context.Context, code string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "base64:" + code, nil
}

// TestPlanCharts tests the structured planning call
func TestPlanCharts(t *testing.T) {
	tests := []struct {
		name      string
		planJSON  string
		planErr   error
		wantSpecs []ChartSpec
		wantCode  errors.ErrorCode
	}{
		{
			name:     "parallel arrays are zipped",
			planJSON: `{"Chart Type": ["bar", "pie"], "SQL Query": ["SELECT 1", "SELECT 2"]}`,
			wantSpecs: []ChartSpec{
				{ChartType: "bar", SQLQuery: "SELECT 1"},
				{ChartType: "pie", SQLQuery: "SELECT 2"},
			},
		},
		{
			name:     "mismatched lengths zip to the shorter side",
			planJSON: `{"Chart Type": ["bar", "pie", "line"], "SQL Query": ["SELECT 1", "SELECT 2"]}`,
			wantSpecs: []ChartSpec{
				{ChartType: "bar", SQLQuery: "SELECT 1"},
				{ChartType: "pie", SQLQuery: "SELECT 2"},
			},
		},
		{
			name:      "empty arrays plan nothing",
			planJSON:  `{"Chart Type": [], "SQL Query": []}`,
			wantSpecs: []ChartSpec{},
		},
		{
			name:     "malformed plan payload fails",
			planJSON: `not json`,
			wantCode: errors.ErrCodeChartPlanning,
		},
		{
			name:     "model failure fails planning",
			planErr:  fmt.Errorf("rate limit exceeded"),
			wantCode: errors.ErrCodeChartPlanning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := NewPipeline(
				&stubClient{planJSON: tt.planJSON, planErr: tt.planErr},
				&stubExecutor{},
				&stubRenderer{},
			)

			specs, _, err := pipeline.PlanCharts(context.Background(), "sales overview", "002-PSS11")

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSpecs, specs)
		})
	}
}

// TestPlanChartsPrompt tests territory and request embedding in the
// planning prompt
func TestPlanChartsPrompt(t *testing.T) {
	pipeline := NewPipeline(&stubClient{planJSON: `{"Chart Type": [], "SQL Query": []}`}, &stubExecutor{}, &stubRenderer{})

	prompt := pipeline.buildPlanPrompt("monthly sales by brand", "002-PSS11")

	assert.Contains(t, prompt, "monthly sales by brand")
	assert.Contains(t, prompt, "002-PSS11")
	assert.Contains(t, prompt, "'Invoice'")
	assert.Contains(t, prompt, "MonthlyRoutePlan")
}

// TestRun tests the full chart batch pipeline
func TestRun(t *testing.T) {
	t.Run("artifacts come back in planning order", func(t *testing.T) {
		client := &stubClient{
			planJSON: `{"Chart Type": ["bar", "pie"], "SQL Query": ["SELECT 1", "SELECT 2"]}`,
		}
		pipeline := NewPipeline(client, &stubExecutor{}, &stubRenderer{})

		artifacts, usage, err := pipeline.Run(context.Background(), "sales overview", "002-PSS11")

		require.NoError(t, err)
		require.Len(t, artifacts, 2)
		assert.Equal(t, "SELECT 1", artifacts[0].SQLQuery)
		assert.Equal(t, "SELECT 2", artifacts[1].SQLQuery)
		assert.NotEmpty(t, artifacts[0].ImageBase64)
		assert.NotEmpty(t, artifacts[1].Text)
		// planning usage plus one code-generation call per chart
		assert.Equal(t, 200+2*100, usage.PromptTokens)
		assert.Equal(t, 50+2*30, usage.CompletionTokens)
	})

	t.Run("empty result aborts the whole batch naming the query", func(t *testing.T) {
		client := &stubClient{
			planJSON: `{"Chart Type": ["bar", "pie"], "SQL Query": ["SELECT 1", "SELECT 2"]}`,
		}
		executor := &stubExecutor{errs: map[string]error{"SELECT 2": store.ErrNoRows}}
		pipeline := NewPipeline(client, executor, &stubRenderer{})

		artifacts, _, err := pipeline.Run(context.Background(), "sales overview", "002-PSS11")

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeEmptyResult, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "SELECT 2")
		assert.Nil(t, artifacts)
	})

	t.Run("renderer failure aborts the batch", func(t *testing.T) {
		client := &stubClient{
			planJSON: `{"Chart Type": ["bar"], "SQL Query": ["SELECT 1"]}`,
		}
		pipeline := NewPipeline(client, &stubExecutor{}, &stubRenderer{err: fmt.Errorf("sandbox unreachable")})

		artifacts, _, err := pipeline.Run(context.Background(), "sales overview", "002-PSS11")

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeChartRender, errors.CodeOf(err))
		assert.Nil(t, artifacts)
	})

	t.Run("code generation failure aborts the batch", func(t *testing.T) {
		client := &stubClient{
			planJSON: `{"Chart Type": ["bar"], "SQL Query": ["SELECT 1"]}`,
			codeErr:  fmt.Errorf("bad request"),
		}
		pipeline := NewPipeline(client, &stubExecutor{}, &stubRenderer{})

		_, _, err := pipeline.Run(context.Background(), "sales overview", "002-PSS11")

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeChartCodeGen, errors.CodeOf(err))
	})

	t.Run("empty plan is a planning failure", func(t *testing.T) {
		client := &stubClient{planJSON: `{"Chart Type": [], "SQL Query": []}`}
		pipeline := NewPipeline(client, &stubExecutor{}, &stubRenderer{})

		_, _, err := pipeline.Run(context.Background(), "sales overview", "002-PSS11")

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeChartPlanning, errors.CodeOf(err))
	})
}
