package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenAIProvider struct {
	BaseURL         string
	APIKey          string
	Model           string
	ReasoningEffort string
	Client          *http.Client
}

func NewOpenAIProvider(baseURL, apiKey, model, reasoningEffort string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		Model:           model,
		ReasoningEffort: reasoningEffort,
		Client:          &http.Client{Timeout: 90 * time.Second},
	}
}

type openAIMsg struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAITool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type openAIChatReq struct {
	Model             string       `json:"model"`
	Messages          []openAIMsg  `json:"messages"`
	Stream            bool         `json:"stream"`
	Tools             []openAITool `json:"tools,omitempty"`
	ParallelToolCalls *bool        `json:"parallel_tool_calls,omitempty"`
	ReasoningEffort   string       `json:"reasoning_effort,omitempty"`
}

type openAIStreamResp struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// StreamChat streams one model turn. Text and reasoning arrive as deltas;
// tool call fragments are accumulated by index and flushed whole when the
// turn finishes. Parallel tool calls are disabled so retrieval and search
// side effects stay ordered.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message, tools []ToolDef) (<-chan Delta, <-chan error) {
	deltas := make(chan Delta, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		if p.Client == nil {
			errs <- errors.New("openai: http client is nil")
			return
		}
		if strings.TrimSpace(p.APIKey) == "" {
			errs <- errors.New("openai: api key is required")
			return
		}
		model := strings.TrimSpace(p.Model)
		if model == "" {
			errs <- errors.New("openai: model is required")
			return
		}

		noParallel := false
		reqBody := openAIChatReq{
			Model:  model,
			Stream: true,
			Messages: func() []openAIMsg {
				out := make([]openAIMsg, 0, len(messages))
				for _, m := range messages {
					om := openAIMsg{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
					for _, tc := range m.ToolCalls {
						otc := openAIToolCall{ID: tc.ID, Type: "function"}
						otc.Function.Name = tc.Name
						otc.Function.Arguments = tc.Args
						om.ToolCalls = append(om.ToolCalls, otc)
					}
					out = append(out, om)
				}
				return out
			}(),
			ReasoningEffort: p.ReasoningEffort,
		}
		if len(tools) > 0 {
			reqBody.ParallelToolCalls = &noParallel
			for _, t := range tools {
				ot := openAITool{Type: "function"}
				ot.Function.Name = t.Name
				ot.Function.Description = t.Description
				ot.Function.Parameters = t.Parameters
				reqBody.Tools = append(reqBody.Tools, ot)
			}
		}

		b, err := json.Marshal(reqBody)
		if err != nil {
			errs <- err
			return
		}

		url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			errs <- err
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.APIKey)

		if p.Client.Timeout < 30*time.Second {
			p.Client.Timeout = 0 // ctx bounds streaming turns
		}

		resp, err := p.Client.Do(req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			errs <- fmt.Errorf("openai: %w", ErrRateLimited)
			return
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
			msg := strings.TrimSpace(string(body))
			if msg == "" {
				msg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			errs <- fmt.Errorf("openai: %s", msg)
			return
		}

		// tool call fragments accumulate per index until the turn ends
		type pendingCall struct {
			id   string
			name string
			args strings.Builder
		}
		var pending []*pendingCall

		flushCalls := func() {
			for _, pc := range pending {
				deltas <- Delta{ToolCall: &ToolCall{
					ID:   pc.id,
					Name: pc.name,
					Args: pc.args.String(),
				}}
			}
			pending = nil
		}

		sc := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				flushCalls()
				return
			}
			var decoded openAIStreamResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				errs <- err
				return
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				if strings.Contains(strings.ToLower(decoded.Error.Message), "rate limit") {
					errs <- fmt.Errorf("openai: %s: %w", decoded.Error.Message, ErrRateLimited)
					return
				}
				errs <- errors.New(decoded.Error.Message)
				return
			}
			if len(decoded.Choices) == 0 {
				continue
			}
			choice := decoded.Choices[0]

			if choice.Delta.Reasoning != "" {
				deltas <- Delta{Reasoning: choice.Delta.Reasoning}
			}
			if choice.Delta.Content != "" {
				deltas <- Delta{Text: choice.Delta.Content}
			}
			for _, tc := range choice.Delta.ToolCalls {
				for len(pending) <= tc.Index {
					pending = append(pending, &pendingCall{})
				}
				pc := pending[tc.Index]
				if tc.ID != "" {
					pc.id = tc.ID
				}
				if tc.Function.Name != "" {
					pc.name = tc.Function.Name
				}
				pc.args.WriteString(tc.Function.Arguments)
			}

			if choice.FinishReason != "" {
				flushCalls()
			}
		}

		if err := sc.Err(); err != nil {
			errs <- err
			return
		}
	}()

	return deltas, errs
}
