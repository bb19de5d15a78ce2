package tools

import (
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

// WebSearchClient calls a Tavily-style web search API. No access control
// layer applies to web results.
type WebSearchClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewWebSearchClient(baseURL, apiKey string) *WebSearchClient {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &WebSearchClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type webSearchReq struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type webSearchResp struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (c *WebSearchClient) Search(ctx context.Context, query string) (string, error) {
	if c.HTTPClient == nil {
		return "", errors.New("websearch: http client is nil")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return "", errors.New("websearch: api key is required")
	}

	b, err := json.Marshal(webSearchReq{Query: query, MaxResults: 5})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/search", strings.TrimRight(c.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("websearch: %s", msg)
	}

	var decoded webSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	if len(decoded.Results) == 0 {
		return "no web results found", nil
	}
	var out strings.Builder
	for i, r := range decoded.Results {
		fmt.Fprintf(&out, "[%d] %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	return strings.TrimSpace(out.String()), nil
}

// WebSnippetSearcher is the web-search collaborator contract.
type WebSnippetSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// NewWebSearch builds the web search tool.
func NewWebSearch(searcher WebSnippetSearcher) Tool {
	return Tool{
		Name: "webSearch",
		Description: "Search the public web for up-to-date information when " +
			"internal documents do not cover the query.",
		Parameters: queryParams,
		Run: func(ctx context.Context, args string) (string, error) {
			query, err := parseQuery(args)
			if err != nil {
				return "", err
			}
			return searcher.Search(ctx, query)
		},
	}
}
