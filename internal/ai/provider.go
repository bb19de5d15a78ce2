package ai

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrRateLimited marks upstream throttling so callers can surface a
// distinguished notice instead of a generic failure.
var ErrRateLimited = errors.New("rate_limited")

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Delta is one streamed fragment of a model turn. Text and Reasoning arrive
// incrementally; tool calls are emitted whole once the turn's arguments are
// fully accumulated.
type Delta struct {
	Text      string
	Reasoning string
	ToolCall  *ToolCall
}

// Provider streams one model turn. Both channels are closed when the turn
// ends; an error on the second channel terminates the turn.
type Provider interface {
	StreamChat(ctx context.Context, messages []Message, tools []ToolDef) (<-chan Delta, <-chan error)
}
