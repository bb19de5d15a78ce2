package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Result is the per-request moderation verdict. It is never persisted.
type Result struct {
	Flagged       bool
	DenialMessage string
}

// Classifier decides whether a user message may reach the model. The gate
// is fail-closed: a classification error must abort the request rather than
// pass content through unflagged.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Client calls an OpenAI-style /moderations endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "omni-moderation-latest"
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type moderationReq struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResp struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Classify(ctx context.Context, text string) (Result, error) {
	if c.HTTPClient == nil {
		return Result{}, errors.New("moderation: http client is nil")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return Result{}, errors.New("moderation: api key is required")
	}

	b, err := json.Marshal(moderationReq{Model: c.Model, Input: text})
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/moderations", strings.TrimRight(c.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return Result{}, fmt.Errorf("moderation: %s", msg)
	}

	var decoded moderationResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return Result{}, errors.New(decoded.Error.Message)
	}
	if len(decoded.Results) == 0 {
		return Result{}, errors.New("moderation: empty response")
	}

	r := decoded.Results[0]
	if !r.Flagged {
		return Result{}, nil
	}

	var cats []string
	for name, hit := range r.Categories {
		if hit {
			cats = append(cats, name)
		}
	}
	sort.Strings(cats)
	out := Result{Flagged: true}
	if len(cats) > 0 {
		out.DenialMessage = fmt.Sprintf(
			"Your message was flagged for %s. I can't answer that.",
			strings.Join(cats, ", "),
		)
	}
	return out, nil
}
