package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newModerationServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-key", "omni-moderation-latest")
	c.HTTPClient = srv.Client()
	return srv, c
}

func TestClassify_CleanMessagePasses(t *testing.T) {
	_, c := newModerationServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		var req moderationReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Input != "what is the leave policy" {
			t.Errorf("unexpected input %q", req.Input)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"flagged": false, "categories": map[string]bool{}}},
		})
	})

	res, err := c.Classify(context.Background(), "what is the leave policy")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Flagged {
		t.Fatal("clean message must not be flagged")
	}
}

func TestClassify_FlaggedMessageNamesCategories(t *testing.T) {
	_, c := newModerationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"flagged": true,
				"categories": map[string]bool{
					"violence":   true,
					"harassment": true,
					"self-harm":  false,
				},
			}},
		})
	})

	res, err := c.Classify(context.Background(), "bad text")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !res.Flagged {
		t.Fatal("expected flagged result")
	}
	want := "Your message was flagged for harassment, violence. I can't answer that."
	if res.DenialMessage != want {
		t.Fatalf("denial message = %q, want %q", res.DenialMessage, want)
	}
}

func TestClassify_FlaggedWithoutCategories(t *testing.T) {
	_, c := newModerationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"flagged": true, "categories": map[string]bool{}}},
		})
	})

	res, err := c.Classify(context.Background(), "bad text")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !res.Flagged || res.DenialMessage != "" {
		t.Fatalf("expected flagged with empty denial, got %+v", res)
	}
}

func TestClassify_ServerErrorIsError(t *testing.T) {
	_, c := newModerationServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})

	_, err := c.Classify(context.Background(), "anything")
	if err == nil || !strings.Contains(err.Error(), "upstream exploded") {
		t.Fatalf("expected upstream error to surface, got %v", err)
	}
}

func TestClassify_APIErrorBodyIsError(t *testing.T) {
	_, c := newModerationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model overloaded"},
		})
	})

	_, err := c.Classify(context.Background(), "anything")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected api error to surface, got %v", err)
	}
}

func TestClassify_EmptyResultsIsError(t *testing.T) {
	_, c := newModerationServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	})

	if _, err := c.Classify(context.Background(), "anything"); err == nil {
		t.Fatal("empty results must be an error, not a pass")
	}
}

func TestClassify_MissingAPIKeyIsError(t *testing.T) {
	c := NewClient("http://localhost:0", "", "")
	if _, err := c.Classify(context.Background(), "anything"); err == nil {
		t.Fatal("missing api key must be an error")
	}
}
