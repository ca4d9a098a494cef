package sqlgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simplrtech/sqlgpt/internal/errors"
	"github.com/simplrtech/sqlgpt/internal/llm"
	"github.com/simplrtech/sqlgpt/internal/observability"
)

// schemaPrompt is the fixed two-table schema description embedded in
// every grounding prompt. The schema is static; there is no discovery.
const schemaPrompt = "The table 'InvoiceView' contains the following columns:" +
	"CustNo (nvarchar), CustName (varchar), Address (varchar), Address2 (varchar), " +
	"BarangayName (nvarchar), CityName (nvarchar), ProvinceName (nvarchar), " +
	"PostCode (varchar), Country (varchar), Phone (varchar), ContactPerson (varchar), " +
	"Balance (float), CreditLimit (float), FaxNo (varchar), Email (varchar), " +
	"PriceGroup (varchar), PaymentTerms (varchar), DueDateCalc (varchar), Nation (varchar), " +
	"SalesRegion (nvarchar), Territory (nvarchar), SalesOffice (nvarchar), DistributorName (nvarchar), " +
	"SalesManTerritory (nvarchar), InvNo (varchar), InvDt (datetime), DoNo (varchar), " +
	"DoDt (datetime), OrdNo (varchar), DeliveryDate (datetime), Salesman (varchar), Discount (float), " +
	"SubTotal (float), GstAmt (float), TotalAmt (float), PaidAmt (float), EWTAmt (float), DueDate (datetime), " +
	"LineNo (varchar), ItemNo (varchar), UOM (varchar), Qty (float), Price (float), LineItemDiscount (float), " +
	"SubAmt (float), LineItemGstAmt (float), SalesType (varchar), ItemName (varchar), Brand (varchar), " +
	"Category (varchar), Barcode (varchar), SalesmanTargetAmount (float), Pricefactor (float), " +
	"DistributorTargetQuantity (float), BaseUOM (varchar), BaseQty (float), SubChannelName (nvarchar), " +
	"OutletTypeName (nvarchar), ChannelName (nvarchar), SalesLocation (nvarchar), SalesmanType (varchar), " +
	"ts (timestamp).\n" +
	"and\n" +
	"The table 'MonthlyRoutePlan' contains the following columns:" +
	"CustNo (nvarchar), RouteDate (datetime), Name (nvarchar), WD (int), SalesManTerritory (nvarchar)" +
	"Additionally, filter the results to include only records where SalesManTerritory is one of the values provided in the list." +
	"Additionally, a CustNo is also provided, please try to filter results based on it but only if the query is relevant to the customer details otherwise ignore it" +
	"There are some terms like, Customers are called outlet too, distinct custno for total outlets"

// QueryRequest is a single natural-language question with its tenant scope
type QueryRequest struct {
	Query       string
	Territories []string
	Customers   []string
}

// ApprovedStatement is the only statement type allowed to reach the
// database. It has been extracted from the model response, classified
// read-only, checked against the territory scope, and normalized to the
// target dialect.
type ApprovedStatement struct {
	SQL   string
	Usage llm.Usage
}

// Generator turns natural-language questions into approved SQL statements
type Generator struct {
	client llm.Client
	logger *observability.Logger
}

// NewGenerator creates a new SQL generation orchestrator
func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		client: client,
		logger: observability.NewLogger("sqlgen"),
	}
}

// Generate runs the guarded-generation pipeline: build the grounding
// prompt, invoke the model once, then extract, classify, scope-check and
// normalize the candidate statement. The model is never re-invoked on
// malformed output.
func (g *Generator) Generate(ctx context.Context, req QueryRequest) (*ApprovedStatement, error) {
	start := time.Now()
	prompt := g.buildPrompt(req)

	completion, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return nil, errors.NewGenerationFailedError(err)
	}

	observability.RecordLLMMetrics("generate_sql", time.Since(start),
		completion.Usage.PromptTokens+completion.Usage.CompletionTokens, nil)

	candidate, found := ExtractSQL(completion.Text)
	if !found {
		g.logger.Warn(ctx, "Model response contained no fenced SQL block", map[string]interface{}{
			"query": req.Query,
		})
		return nil, errors.NewNoStatementFoundError()
	}

	if classification := Classify(candidate); classification != ClassificationReadOnly {
		g.logger.Warn(ctx, "Candidate statement rejected by safety classifier", map[string]interface{}{
			"query":          req.Query,
			"classification": string(classification),
		})
		observability.GetGlobalMetrics().Inc(observability.MetricSafetyRejections, map[string]string{
			"classification": string(classification),
		})
		return nil, errors.NewSafetyRejectedError(candidate)
	}

	if !CheckScope(candidate, req.Territories) {
		g.logger.Warn(ctx, "Candidate statement ignores territory scope", map[string]interface{}{
			"query": req.Query,
		})
		observability.GetGlobalMetrics().Inc(observability.MetricScopeViolations, nil)
		return nil, errors.NewScopeViolationError(ScopeColumn)
	}

	return &ApprovedStatement{
		SQL:   NormalizeDialect(candidate),
		Usage: completion.Usage,
	}, nil
}

// buildPrompt creates the grounding prompt for the model
func (g *Generator) buildPrompt(req QueryRequest) string {
	var sb strings.Builder

	sb.WriteString("You are an AI agent that translates natural language queries into SQL queries for MS SQL Server. ")
	sb.WriteString("Write only the SQL query, nothing else. ")
	sb.WriteString(fmt.Sprintf("Based on the table structures provided: %s, ", schemaPrompt))
	sb.WriteString(fmt.Sprintf("generate an SQL query for the following request: '%s', ", req.Query))
	sb.WriteString(fmt.Sprintf("including a filter to limit the SalesManTerritory to the following list: %s.", quoteList(req.Territories)))
	sb.WriteString(fmt.Sprintf("these are the customer no: %s, use this only if query is relevant to customer details.", quoteList(req.Customers)))

	return sb.String()
}

// quoteList renders scope values as a quoted, comma-joined SQL list
func quoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, fmt.Sprintf("'%s'", value))
	}
	return strings.Join(quoted, ", ")
}
