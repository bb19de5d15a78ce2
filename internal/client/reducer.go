package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/onboardly/onboardly/internal/chat"
)

// Reducer folds one turn's event stream into an assistant message.
// Streaming parts are appended-to until their end event; a stream that
// closes without finish leaves the message in its partial state and marks
// the turn failed.
type Reducer struct {
	msg       chat.Message
	partIdx   map[string]int
	startedAt map[string]time.Time

	// Durations maps "<messageID>-<partIndex>" to elapsed milliseconds for
	// reasoning parts, measured on the consuming side.
	Durations map[string]float64

	finished bool
	errMsg   string

	now func() time.Time
}

func NewReducer(messageID string) *Reducer {
	return &Reducer{
		msg:       chat.Message{ID: messageID, Role: chat.RoleAssistant},
		partIdx:   map[string]int{},
		startedAt: map[string]time.Time{},
		Durations: map[string]float64{},
		now:       time.Now,
	}
}

// Apply reduces one event into the message. Part types are a closed set;
// anything else is a protocol violation and marks the turn failed.
func (r *Reducer) Apply(ev chat.Event) {
	switch ev.Type {
	case chat.EventStart:
		// turn opened, nothing to record yet
	case chat.EventTextStart:
		r.partIdx[ev.ID] = len(r.msg.Parts)
		r.msg.Parts = append(r.msg.Parts, chat.Part{Type: chat.PartText})
	case chat.EventTextDelta:
		if i, ok := r.partIdx[ev.ID]; ok {
			r.msg.Parts[i].Text += ev.Delta
		}
	case chat.EventTextEnd:
		// text parts carry no duration
	case chat.EventReasoningStart:
		r.partIdx[ev.ID] = len(r.msg.Parts)
		r.startedAt[ev.ID] = r.now()
		r.msg.Parts = append(r.msg.Parts, chat.Part{Type: chat.PartReasoning})
	case chat.EventReasoningDelta:
		if i, ok := r.partIdx[ev.ID]; ok {
			r.msg.Parts[i].Text += ev.Delta
		}
	case chat.EventReasoningEnd:
		if i, ok := r.partIdx[ev.ID]; ok {
			if start, ok := r.startedAt[ev.ID]; ok {
				key := fmt.Sprintf("%s-%d", r.msg.ID, i)
				r.Durations[key] = float64(r.now().Sub(start).Milliseconds())
			}
		}
	case chat.EventToolCall:
		r.partIdx[ev.ID] = len(r.msg.Parts)
		r.msg.Parts = append(r.msg.Parts, chat.Part{
			Type:     chat.PartToolCall,
			ToolName: ev.ToolName,
			State:    "call",
			Args:     ev.Args,
		})
	case chat.EventToolResult:
		if i, ok := r.partIdx[ev.ID]; ok {
			r.msg.Parts[i].State = "output-available"
			r.msg.Parts[i].Result = ev.Result
		}
	case chat.EventError:
		r.errMsg = ev.Message
	case chat.EventFinish:
		r.finished = true
	default:
		r.errMsg = "unexpected stream event: " + string(ev.Type)
	}
}

func (r *Reducer) Message() chat.Message { return r.msg }

// Finished reports whether the stream terminated with a finish event. A
// stream that closed without one is a terminal error for the turn.
func (r *Reducer) Finished() bool { return r.finished }

func (r *Reducer) Err() string { return r.errMsg }

// RateLimited reports whether the turn failed due to upstream throttling,
// which callers surface with a distinguished notice.
func (r *Reducer) RateLimited() bool {
	return strings.Contains(strings.ToLower(r.errMsg), "rate_limit")
}
