package llm

import (
	"fmt"

	"github.com/queryloom/queryloom/internal/schema"
)

const describeSystemPrompt = "You are a data analyst helping users understand what an unfamiliar database contains."

const describeTemperature = 0.3

// BuildDescribeRequest renders a completion request asking the model for a
// prose description of the schema: what the data appears to represent and
// what kinds of questions it can answer.
func BuildDescribeRequest(desc schema.Description) CompletionRequest {
	prompt := fmt.Sprintf(`Here is the schema of a database:

%s
Describe in a few short paragraphs what this data appears to represent and
what kinds of analytics questions it could answer. Mention notable tables by
name. Do not invent tables or columns that are not in the schema.`, desc.Format())

	return CompletionRequest{
		System:      describeSystemPrompt,
		Prompt:      prompt,
		Temperature: describeTemperature,
		MaxTokens:   1000,
	}
}
