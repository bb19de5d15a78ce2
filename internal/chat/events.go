package chat

type EventType string

const (
	EventStart          EventType = "start"
	EventTextStart      EventType = "text-start"
	EventTextDelta      EventType = "text-delta"
	EventTextEnd        EventType = "text-end"
	EventReasoningStart EventType = "reasoning-start"
	EventReasoningDelta EventType = "reasoning-delta"
	EventReasoningEnd   EventType = "reasoning-end"
	EventToolCall       EventType = "tool-call"
	EventToolResult     EventType = "tool-result"
	EventError          EventType = "error"
	EventFinish         EventType = "finish"
)

// Event is one element of the orchestrator's output sequence. The stream is
// lazy, finite and consumed exactly once; a well-formed turn ends with
// finish, an aborted or failed turn ends without it.
type Event struct {
	Type     EventType `json:"type"`
	ID       string    `json:"id,omitempty"`
	Delta    string    `json:"delta,omitempty"`
	ToolName string    `json:"toolName,omitempty"`
	Args     string    `json:"args,omitempty"`
	Result   string    `json:"result,omitempty"`
	Message  string    `json:"message,omitempty"`
}
