package vectordb

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

// Chunk is one ranked result from the document index, tagged with its
// source so callers can apply access rules and citations.
type Chunk struct {
	Text              string
	PreContext        string
	PostContext       string
	SourceURL         string
	SourceName        string
	SourceDescription string
	SourceType        string
	Order             int
}

// Client queries a hosted vector index over its records-search API.
type Client struct {
	Host       string
	APIKey     string
	Namespace  string
	TopK       int
	HTTPClient *http.Client
}

func NewClient(host, apiKey, namespace string, topK int) *Client {
	if namespace == "" {
		namespace = "default"
	}
	if topK <= 0 {
		topK = 10
	}
	return &Client{
		Host:       host,
		APIKey:     apiKey,
		Namespace:  namespace,
		TopK:       topK,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type searchReq struct {
	Query struct {
		Inputs struct {
			Text string `json:"text"`
		} `json:"inputs"`
		TopK int `json:"top_k"`
	} `json:"query"`
	Fields []string `json:"fields"`
}

type searchResp struct {
	Result struct {
		Hits []struct {
			Fields struct {
				Text              string `json:"text"`
				PreContext        string `json:"pre_context"`
				PostContext       string `json:"post_context"`
				SourceURL         string `json:"source_url"`
				SourceName        string `json:"source_name"`
				SourceDescription string `json:"source_description"`
				SourceType        string `json:"source_type"`
				Order             int    `json:"order"`
			} `json:"fields"`
		} `json:"hits"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Search(ctx context.Context, query string) ([]Chunk, error) {
	if c.HTTPClient == nil {
		return nil, errors.New("vectordb: http client is nil")
	}
	if strings.TrimSpace(c.Host) == "" {
		return nil, errors.New("vectordb: host is required")
	}

	var body searchReq
	body.Query.Inputs.Text = query
	body.Query.TopK = c.TopK
	body.Fields = []string{
		"text", "pre_context", "post_context",
		"source_url", "source_name", "source_description", "source_type", "order",
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	host := strings.TrimRight(c.Host, "/")
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	url := fmt.Sprintf("%s/records/namespaces/%s/search", host, c.Namespace)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("vectordb: %s", msg)
	}

	var decoded searchResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, errors.New(decoded.Error.Message)
	}

	chunks := make([]Chunk, 0, len(decoded.Result.Hits))
	for _, h := range decoded.Result.Hits {
		chunks = append(chunks, Chunk{
			Text:              h.Fields.Text,
			PreContext:        h.Fields.PreContext,
			PostContext:       h.Fields.PostContext,
			SourceURL:         h.Fields.SourceURL,
			SourceName:        h.Fields.SourceName,
			SourceDescription: h.Fields.SourceDescription,
			SourceType:        h.Fields.SourceType,
			Order:             h.Fields.Order,
		})
	}
	return chunks, nil
}
