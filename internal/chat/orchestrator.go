package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/ai"
	"github.com/onboardly/onboardly/internal/metrics"
	"github.com/onboardly/onboardly/internal/tools"
)

// DenialFallback is emitted when the moderation gate flags a message but
// provides no denial text of its own.
const DenialFallback = "Your message violates our guidelines. I can't answer that."

// Orchestrator drives one tool-augmented model turn and emits it as an
// ordered event sequence. The sequence is lazy, finite and consumed by
// exactly one client; it ends with a finish event on success and without
// one on error or cancellation.
type Orchestrator struct {
	Provider ai.Provider
	Tools    []tools.Tool
	System   string
	MaxSteps int
	Logger   zerolog.Logger
}

func NewOrchestrator(provider ai.Provider, toolset []tools.Tool, system string, maxSteps int, logger zerolog.Logger) *Orchestrator {
	if maxSteps <= 0 {
		maxSteps = 10
	}
	return &Orchestrator{
		Provider: provider,
		Tools:    toolset,
		System:   system,
		MaxSteps: maxSteps,
		Logger:   logger,
	}
}

// DenialStream synthesizes a moderation denial as the same kind of event
// sequence a real generation produces: a single text part, then finish.
func DenialStream(denial string) <-chan Event {
	if denial == "" {
		denial = DenialFallback
	}
	events := make(chan Event, 8)
	go func() {
		defer close(events)
		const textID = "moderation-denial-text"
		events <- Event{Type: EventStart}
		events <- Event{Type: EventTextStart, ID: textID}
		events <- Event{Type: EventTextDelta, ID: textID, Delta: denial}
		events <- Event{Type: EventTextEnd, ID: textID}
		events <- Event{Type: EventFinish}
	}()
	return events
}

// Run executes the generation path: up to MaxSteps model turns, each of
// which may call tools. Tool calls within a step run serially so retrieval
// and search side effects stay ordered.
func (o *Orchestrator) Run(ctx context.Context, history []Message) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		fail := func(err error) {
			o.Logger.Error().Err(err).Msg("generation stream failed")
			metrics.StreamFailures.Inc()
			msg := "Something went wrong. Please try again."
			if errors.Is(err, ai.ErrRateLimited) {
				msg = "rate_limit: we're getting a lot of traffic right now. Please retry in a few seconds."
			}
			emit(Event{Type: EventError, Message: msg})
			// no finish: the consumer treats the unterminated stream as a
			// terminal error for this turn
		}

		if !emit(Event{Type: EventStart}) {
			return
		}

		convo := make([]ai.Message, 0, len(history)+1)
		convo = append(convo, ai.Message{Role: "system", Content: o.System})
		for _, m := range history {
			convo = append(convo, ai.Message{Role: string(m.Role), Content: flattenText(m)})
		}

		defs := make([]ai.ToolDef, 0, len(o.Tools))
		for _, t := range o.Tools {
			defs = append(defs, t.Def())
		}

		for step := 0; step < o.MaxSteps; step++ {
			deltas, errs := o.Provider.StreamChat(ctx, convo, defs)

			var (
				textID      string
				reasoningID string
				assistant   strings.Builder
				calls       []ai.ToolCall
			)

			closeParts := func() bool {
				if reasoningID != "" {
					if !emit(Event{Type: EventReasoningEnd, ID: reasoningID}) {
						return false
					}
					reasoningID = ""
				}
				if textID != "" {
					if !emit(Event{Type: EventTextEnd, ID: textID}) {
						return false
					}
					textID = ""
				}
				return true
			}

			for d := range deltas {
				switch {
				case d.Reasoning != "":
					if textID != "" {
						if !emit(Event{Type: EventTextEnd, ID: textID}) {
							return
						}
						textID = ""
					}
					if reasoningID == "" {
						reasoningID = uuid.NewString()
						if !emit(Event{Type: EventReasoningStart, ID: reasoningID}) {
							return
						}
					}
					if !emit(Event{Type: EventReasoningDelta, ID: reasoningID, Delta: d.Reasoning}) {
						return
					}
				case d.Text != "":
					if reasoningID != "" {
						if !emit(Event{Type: EventReasoningEnd, ID: reasoningID}) {
							return
						}
						reasoningID = ""
					}
					if textID == "" {
						textID = uuid.NewString()
						if !emit(Event{Type: EventTextStart, ID: textID}) {
							return
						}
					}
					assistant.WriteString(d.Text)
					if !emit(Event{Type: EventTextDelta, ID: textID, Delta: d.Text}) {
						return
					}
				case d.ToolCall != nil:
					calls = append(calls, *d.ToolCall)
				}
			}

			select {
			case err := <-errs:
				if err != nil {
					closeParts()
					fail(err)
					return
				}
			default:
			}
			if ctx.Err() != nil {
				return
			}

			if !closeParts() {
				return
			}

			convo = append(convo, ai.Message{
				Role:      "assistant",
				Content:   assistant.String(),
				ToolCalls: calls,
			})

			if len(calls) == 0 {
				emit(Event{Type: EventFinish})
				return
			}

			// serialized tool execution
			for _, call := range calls {
				if !emit(Event{Type: EventToolCall, ID: call.ID, ToolName: call.Name, Args: call.Args}) {
					return
				}

				tool, ok := o.lookupTool(call.Name)
				if !ok {
					fail(errors.New("unknown tool: " + call.Name))
					return
				}

				metrics.ToolInvocations.WithLabelValues(call.Name).Inc()
				result, err := tool.Run(ctx, call.Args)
				if err != nil {
					fail(err)
					return
				}

				if !emit(Event{Type: EventToolResult, ID: call.ID, ToolName: call.Name, Result: result}) {
					return
				}
				convo = append(convo, ai.Message{
					Role:       "tool",
					Content:    result,
					ToolCallID: call.ID,
				})
			}
		}

		// step cap reached: terminate the sequence normally
		emit(Event{Type: EventFinish})
	}()

	return events
}

func (o *Orchestrator) lookupTool(name string) (tools.Tool, bool) {
	for _, t := range o.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return tools.Tool{}, false
}

func flattenText(m Message) string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
