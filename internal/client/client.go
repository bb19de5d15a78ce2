package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/onboardly/onboardly/internal/chat"
)

// Client talks to the chat endpoint and exposes the response as an event
// channel. Aborting the context mid-stream closes the channel without a
// finish event; callers keep whatever partial state they have reduced.
type Client struct {
	BaseURL    string
	Username   string
	HTTPClient *http.Client
}

func New(baseURL, username string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		// no client-side timeout: the server bounds the turn, the ctx
		// carries user aborts
		HTTPClient: &http.Client{},
	}
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
	Username string         `json:"username,omitempty"`
}

// Stream sends the full message history and yields the server's event
// sequence. Both channels close when the stream ends.
func (c *Client) Stream(ctx context.Context, messages []chat.Message) (<-chan chat.Event, <-chan error) {
	events := make(chan chat.Event, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		body, err := json.Marshal(chatRequest{Messages: messages, Username: c.Username})
		if err != nil {
			errs <- err
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat", bytes.NewReader(body))
		if err != nil {
			errs <- err
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
			msg := strings.TrimSpace(string(raw))
			if msg == "" {
				msg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			errs <- fmt.Errorf("chat: %s", msg)
			return
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
				return
			}
			var ev chat.Event
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				errs <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}

		if err := sc.Err(); err != nil {
			errs <- err
		}
	}()

	return events, errs
}

// Login performs the stub sign-in and records the username for later turns.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}
	c.Username = username
	return nil
}
