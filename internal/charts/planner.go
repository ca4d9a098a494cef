// Package charts plans, executes and renders chart batches from a single
// natural-language visualisation request.
package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/simplrtech/sqlgpt/internal/errors"
	"github.com/simplrtech/sqlgpt/internal/llm"
)

// chartSchemaPrompt is the fixed schema description for the chart
// planning prompt. The planner grounds on the Invoice table rather than
// the view the query flow uses.
const chartSchemaPrompt = "The table 'Invoice' contains the following columns:" +
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
	"CustNo (nvarchar), RouteDate (datetime), Name (nvarchar), WD (int), SalesManTerritory (nvarchar)"

// chartPlanSchema constrains the planning call to two parallel string arrays
var chartPlanSchema = llm.Schema{
	Name: "Charts_and_SQL_Query",
	Definition: json.RawMessage(`{
		"type": "object",
		"properties": {
			"Chart Type": {
				"description": "Chart Type Such as line, bar, pie etc",
				"type": "array",
				"items": {"type": "string"}
			},
			"SQL Query": {
				"description": "SQL Queries (for SQL server) to fetch data relevant to this chart type",
				"type": "array",
				"items": {"type": "string"}
			}
		}
	}`),
}

// ChartSpec pairs a renderer hint with the query that feeds it
type ChartSpec struct {
	ChartType string
	SQLQuery  string
}

// chartPlan mirrors the structured-output schema of the planning call
type chartPlan struct {
	ChartTypes []string `json:"Chart Type"`
	SQLQueries []string `json:"SQL Query"`
}

// PlanCharts issues one structured generative call and returns the
// planned (chart type, query) pairs. The schema asks for two parallel
// arrays of equal length but does not enforce it, so a short array on
// either side is handled by zipping to the shorter length rather than
// padding or erroring.
func (p *Pipeline) PlanCharts(ctx context.Context, query, territory string) ([]ChartSpec, llm.Usage, error) {
	prompt := p.buildPlanPrompt(query, territory)

	completion, err := p.client.CompleteStructured(ctx, prompt, chartPlanSchema)
	if err != nil {
		return nil, llm.Usage{}, errors.NewChartPlanningError(err)
	}

	var plan chartPlan
	if err := json.Unmarshal(completion.Content, &plan); err != nil {
		return nil, completion.Usage, errors.NewChartPlanningError(err)
	}

	count := len(plan.ChartTypes)
	if len(plan.SQLQueries) < count {
		count = len(plan.SQLQueries)
	}

	specs := make([]ChartSpec, 0, count)
	for i := 0; i < count; i++ {
		specs = append(specs, ChartSpec{
			ChartType: plan.ChartTypes[i],
			SQLQuery:  plan.SQLQueries[i],
		})
	}

	return specs, completion.Usage, nil
}

// buildPlanPrompt creates the grounding prompt for the planning call
func (p *Pipeline) buildPlanPrompt(query, territory string) string {
	var sb strings.Builder

	sb.WriteString("You are an AI agent that translates natural language visualisation requests into chart type and relevant SQL queries for MS SQL Server. ")
	sb.WriteString(fmt.Sprintf("Based on the table structure provided: %s, ", chartSchemaPrompt))
	sb.WriteString(fmt.Sprintf("Additionally, filter the results to include only records where SalesManTerritory is : %s.", territory))
	sb.WriteString(fmt.Sprintf("generate Chart types and SQL queries for the following request: '%s'", query))

	return sb.String()
}
