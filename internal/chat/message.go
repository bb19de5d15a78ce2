package chat

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type PartType string

const (
	PartText      PartType = "text"
	PartReasoning PartType = "reasoning"
	PartToolCall  PartType = "tool-call"
)

// Part is one segment of a message. Type selects which fields are set:
// text/reasoning carry Text; tool-call carries ToolName, State, Args and,
// once the tool has run, Result.
type Part struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	ToolName string   `json:"toolName,omitempty"`
	State    string   `json:"state,omitempty"`
	Args     string   `json:"args,omitempty"`
	Result   string   `json:"result,omitempty"`
}

type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// TextOf returns the trimmed text of the first text part, or "".
func TextOf(m Message) string {
	for _, p := range m.Parts {
		if p.Type == PartText {
			return strings.TrimSpace(p.Text)
		}
	}
	return ""
}

// LatestUserText concatenates the text parts of the most recent user
// message. The moderation gate and safety scan run on exactly this string.
func LatestUserText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != RoleUser {
			continue
		}
		var b strings.Builder
		for _, p := range messages[i].Parts {
			if p.Type == PartText {
				b.WriteString(p.Text)
			}
		}
		return b.String()
	}
	return ""
}
