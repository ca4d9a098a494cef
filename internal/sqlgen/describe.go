package sqlgen

import (
	"context"
	"fmt"

	"github.com/simplrtech/sqlgpt/internal/errors"
	"github.com/simplrtech/sqlgpt/internal/llm"
)

// DescribeResult turns a formatted query result into a natural-language
// summary answering the original question. The currency-sign instruction
// matters: amounts in the sales data are in mixed currencies and the
// model otherwise guesses one.
func (g *Generator) DescribeResult(ctx context.Context, question, formattedResult string) (string, llm.Usage, error) {
	prompt := fmt.Sprintf(
		"You describe SQL results in natural language based on the given question. (Don't use any Currency Signs)\n"+
			"Question : %s \nSQL Result : %s", question, formattedResult)

	completion, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return "", llm.Usage{}, errors.Wrap(err, errors.ErrCodeGenerationFailed, "Failed to describe query result")
	}

	return completion.Text, completion.Usage, nil
}
