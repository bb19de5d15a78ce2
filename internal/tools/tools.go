package tools

import (
	"context"
	"encoding/json"

	"github.com/onboardly/onboardly/internal/ai"
)

// Tool is one capability the orchestrator may expose to the model. Run
// receives the model's raw JSON arguments and returns the context string
// fed back as the tool result.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Run         func(ctx context.Context, args string) (string, error)
}

func (t Tool) Def() ai.ToolDef {
	return ai.ToolDef{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// queryArgs is the shared argument shape of both search tools.
type queryArgs struct {
	Query string `json:"query"`
}

var queryParams = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The search query."
		}
	},
	"required": ["query"]
}`)

func parseQuery(args string) (string, error) {
	var qa queryArgs
	if err := json.Unmarshal([]byte(args), &qa); err != nil {
		return "", err
	}
	return qa.Query, nil
}
