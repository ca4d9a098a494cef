package charts

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simplrtech/sqlgpt/internal/errors"
	"github.com/simplrtech/sqlgpt/internal/llm"
	"github.com/simplrtech/sqlgpt/internal/observability"
	"github.com/simplrtech/sqlgpt/internal/store"
)

// codeGenSchema constrains the per-chart call to a two-field object
var codeGenSchema = llm.Schema{
	Name: "Matplotlib_Code",
	Definition: json.RawMessage(`{
		"type": "object",
		"properties": {
			"Code": {
				"description": "Python code using Matplotlib to generate the requested chart",
				"type": "string"
			},
			"Text": {
				"description": "Textual description of the data and chart, how it relates to the query.",
				"type": "string"
			}
		}
	}`),
}

// renderArtifact mirrors the structured-output schema of the code
// generation call
type renderArtifact struct {
	Code string `json:"Code"`
	Text string `json:"Text"`
}

// ChartArtifact is one finished chart in the response array
type ChartArtifact struct {
	SQLQuery    string `json:"sql_query"`
	Text        string `json:"text"`
	ImageBase64 string `json:"image_base64"`
}

// Pipeline orchestrates the chart flow: plan a batch, execute each
// query, generate drawing code and description per chart, render each
// through the sandbox.
type Pipeline struct {
	client   llm.Client
	executor store.Executor
	renderer Renderer
	logger   *observability.Logger
}

// NewPipeline creates a chart pipeline orchestrator
func NewPipeline(client llm.Client, executor store.Executor, renderer Renderer) *Pipeline {
	return &Pipeline{
		client:   client,
		executor: executor,
		renderer: renderer,
		logger:   observability.NewLogger("charts"),
	}
}

// Run executes the full chart pipeline for one request. The per-chart
// work is independent, so it runs concurrently; output ordering always
// matches planning order, and a single failure aborts the whole batch.
// A planned query that matches no rows fails the batch naming that
// query; no partial chart array is ever returned.
func (p *Pipeline) Run(ctx context.Context, query, territory string) ([]ChartArtifact, llm.Usage, error) {
	start := time.Now()

	specs, usage, err := p.PlanCharts(ctx, query, territory)
	if err != nil {
		return nil, usage, err
	}
	if len(specs) == 0 {
		return nil, usage, errors.NewChartPlanningError(fmt.Errorf("model planned no charts"))
	}

	p.logger.Info(ctx, "Chart batch planned", map[string]interface{}{
		"query":  query,
		"charts": len(specs),
	})

	artifacts := make([]ChartArtifact, len(specs))
	usages := make([]llm.Usage, len(specs))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		group.Go(func() error {
			artifact, chartUsage, err := p.runChart(groupCtx, spec, query)
			if err != nil {
				return err
			}
			artifacts[i] = *artifact
			usages[i] = chartUsage
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, usage, err
	}

	for _, chartUsage := range usages {
		usage = usage.Add(chartUsage)
	}

	observability.RecordChartMetrics(len(specs), time.Since(start), nil)
	return artifacts, usage, nil
}

// runChart executes one planned chart end to end
func (p *Pipeline) runChart(ctx context.Context, spec ChartSpec, query string) (*ChartArtifact, llm.Usage, error) {
	result, err := p.executor.Execute(ctx, spec.SQLQuery)
	if err != nil {
		if stderrors.Is(err, store.ErrNoRows) {
			return nil, llm.Usage{}, errors.NewEmptyResultError(spec.SQLQuery)
		}
		return nil, llm.Usage{}, err
	}

	code, text, usage, err := p.generateCodeAndDescription(ctx, spec.ChartType, result.Formatted(), query)
	if err != nil {
		return nil, usage, err
	}

	image, err := p.renderer.Render(ctx, code)
	if err != nil {
		return nil, usage, errors.NewChartRenderError(err, spec.ChartType)
	}

	return &ChartArtifact{
		SQLQuery:    spec.SQLQuery,
		Text:        text,
		ImageBase64: image,
	}, usage, nil
}

// generateCodeAndDescription asks the model for drawing code plus a
// description for one chart. The full result rows are passed verbatim;
// there is no size capping at this layer.
func (p *Pipeline) generateCodeAndDescription(ctx context.Context, chartType, result, query string) (string, string, llm.Usage, error) {
	prompt := fmt.Sprintf(
		"create a matplotlib code to generate a chart of type: %s using the following data: %s"+
			"Make sure you use correct labels and colors that gives a modern and minimal visual representation to the chart."+
			"If data is too large for charts you can remove data too but do it very carefully, always you double quote string for your labels and titles."+
			"Also, make sure to use the correct chart type according to the data provided and charts should look visually appealing."+
			"dont show the chart, save it to disk as 'chart.png'."+
			"Also, provide a short description of the chart and its significance and analysis according to this query%s.",
		chartType, result, query)

	completion, err := p.client.CompleteStructured(ctx, prompt, codeGenSchema)
	if err != nil {
		return "", "", llm.Usage{}, errors.NewChartCodeGenError(err, chartType)
	}

	var artifact renderArtifact
	if err := json.Unmarshal(completion.Content, &artifact); err != nil {
		return "", "", completion.Usage, errors.NewChartCodeGenError(err, chartType)
	}

	return artifact.Code, artifact.Text, completion.Usage, nil
}
