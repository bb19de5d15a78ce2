package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/chat"
	"github.com/onboardly/onboardly/internal/config"
	"github.com/onboardly/onboardly/internal/moderation"
	"github.com/onboardly/onboardly/internal/safety"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClassifier struct {
	res      moderation.Result
	err      error
	calls    int
	lastText string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (moderation.Result, error) {
	f.calls++
	f.lastText = text
	return f.res, f.err
}

type fakeGenerator struct {
	events []chat.Event
	calls  int
}

func (f *fakeGenerator) Run(ctx context.Context, history []chat.Message) <-chan chat.Event {
	f.calls++
	out := make(chan chat.Event, len(f.events))
	for _, ev := range f.events {
		out <- ev
	}
	close(out)
	return out
}

// chanNotifier lets a test wait for the detached alert goroutine.
type chanNotifier struct {
	notified chan string
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{notified: make(chan string, 4)}
}

func (n *chanNotifier) Name() string { return "chan" }

func (n *chanNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	n.notified <- body
	return nil
}

func (n *chanNotifier) wait(t *testing.T) string {
	t.Helper()
	select {
	case body := <-n.notified:
		return body
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not dispatched")
		return ""
	}
}

func (n *chanNotifier) expectNone(t *testing.T) {
	t.Helper()
	select {
	case body := <-n.notified:
		t.Fatalf("unexpected alert dispatched: %q", body)
	case <-time.After(100 * time.Millisecond):
	}
}

type fixture struct {
	handler    *Handler
	classifier *fakeClassifier
	generator  *fakeGenerator
	notifier   *chanNotifier
	router     *gin.Engine
}

func newFixture() *fixture {
	classifier := &fakeClassifier{}
	generator := &fakeGenerator{events: []chat.Event{
		{Type: chat.EventStart},
		{Type: chat.EventTextStart, ID: "t1"},
		{Type: chat.EventTextDelta, ID: "t1", Delta: "generated answer"},
		{Type: chat.EventTextEnd, ID: "t1"},
		{Type: chat.EventFinish},
	}}
	notifier := newChanNotifier()
	alerter := safety.NewAlerter(notifier, "safety@example.com", nil, zerolog.Nop())

	cfg := config.Config{TurnTimeout: 5 * time.Second}
	h := NewHandler(cfg, classifier, alerter, generator, zerolog.Nop())

	r := gin.New()
	r.POST("/chat", h.Chat)
	r.POST("/login", h.Login)
	return &fixture{handler: h, classifier: classifier, generator: generator, notifier: notifier, router: r}
}

func chatBody(username, text string) string {
	req := map[string]any{
		"messages": []map[string]any{{
			"id":    "m1",
			"role":  "user",
			"parts": []map[string]any{{"type": "text", "text": text}},
		}},
	}
	if username != "" {
		req["username"] = username
	}
	b, _ := json.Marshal(req)
	return string(b)
}

func postChat(f *fixture, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// sseEvents parses the data: lines of an SSE body into events, dropping the
// [DONE] terminator.
func sseEvents(t *testing.T, body string) []chat.Event {
	t.Helper()
	var events []chat.Event
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			continue
		}
		var ev chat.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestChat_GenerationPath(t *testing.T) {
	f := newFixture()
	w := postChat(f, chatBody("alice", "what is the leave policy"), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "data: [DONE]") {
		t.Fatal("stream must end with the [DONE] terminator")
	}

	events := sseEvents(t, w.Body.String())
	if events[len(events)-1].Type != chat.EventFinish {
		t.Fatalf("last event = %+v, want finish", events[len(events)-1])
	}
	if f.classifier.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1", f.classifier.calls)
	}
	if f.classifier.lastText != "what is the leave policy" {
		t.Fatalf("classifier saw %q", f.classifier.lastText)
	}
	if f.generator.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", f.generator.calls)
	}
}

func TestChat_FlaggedMessageGetsDenialStream(t *testing.T) {
	f := newFixture()
	f.classifier.res = moderation.Result{Flagged: true, DenialMessage: "flagged for violence"}

	w := postChat(f, chatBody("alice", "some flagged text here"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	events := sseEvents(t, w.Body.String())
	var sawDenial bool
	for _, ev := range events {
		if ev.Type == chat.EventTextDelta && ev.Delta == "flagged for violence" {
			sawDenial = true
		}
	}
	if !sawDenial {
		t.Fatalf("denial text not streamed: %s", w.Body.String())
	}
	if events[len(events)-1].Type != chat.EventFinish {
		t.Fatal("denial stream must finish")
	}
	if f.generator.calls != 0 {
		t.Fatal("flagged message must never reach the generator")
	}
}

func TestChat_FlaggedWithoutDenialUsesFallback(t *testing.T) {
	f := newFixture()
	f.classifier.res = moderation.Result{Flagged: true}

	w := postChat(f, chatBody("alice", "some flagged text here"), nil)
	if !strings.Contains(w.Body.String(), chat.DenialFallback) {
		t.Fatalf("fallback denial missing: %s", w.Body.String())
	}
}

func TestChat_ModerationFailureFailsClosed(t *testing.T) {
	f := newFixture()
	f.classifier.err = context.DeadlineExceeded

	w := postChat(f, chatBody("alice", "anything at all"), nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if f.generator.calls != 0 {
		t.Fatal("classifier failure must block the turn entirely")
	}

	var envelope struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Code != 50201 {
		t.Fatalf("error code = %d", envelope.Code)
	}
}

func TestChat_SafetyAlertDispatchedWithBodyUsername(t *testing.T) {
	f := newFixture()
	postChat(f, chatBody("alice", "there was an engine failure on the ramp"), nil)

	body := f.notifier.wait(t)
	if !strings.Contains(body, "username = alice") {
		t.Fatalf("alert body missing username: %q", body)
	}
	if !strings.Contains(body, "engine failure") {
		t.Fatalf("alert body missing text: %q", body)
	}
	if f.generator.calls != 1 {
		t.Fatal("a safety alert must not block generation")
	}
}

func TestChat_SafetyAlertFallsBackToCookieUsername(t *testing.T) {
	f := newFixture()
	postChat(f, chatBody("", "there was an engine failure on the ramp"),
		&http.Cookie{Name: "username", Value: "dave"})

	body := f.notifier.wait(t)
	if !strings.Contains(body, "username = dave") {
		t.Fatalf("alert body missing cookie username: %q", body)
	}
}

func TestChat_SafetyAlertUnknownUsername(t *testing.T) {
	f := newFixture()
	postChat(f, chatBody("", "there was an engine failure on the ramp"), nil)

	body := f.notifier.wait(t)
	if !strings.Contains(body, "username = unknown") {
		t.Fatalf("alert body missing placeholder username: %q", body)
	}
}

func TestChat_AlertFiresEvenWhenFlagged(t *testing.T) {
	f := newFixture()
	f.classifier.res = moderation.Result{Flagged: true, DenialMessage: "denied"}

	postChat(f, chatBody("alice", "there was an engine failure on the ramp"), nil)

	f.notifier.wait(t)
	if f.generator.calls != 0 {
		t.Fatal("flagged turn must not generate")
	}
}

func TestChat_NoAlertForOrdinaryMessage(t *testing.T) {
	f := newFixture()
	postChat(f, chatBody("alice", "what is the leave policy"), nil)
	f.notifier.expectNone(t)
}

func TestChat_RejectsMissingMessages(t *testing.T) {
	f := newFixture()
	w := postChat(f, `{"username":"alice"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if f.classifier.calls != 0 || f.generator.calls != 0 {
		t.Fatal("invalid request must short-circuit the pipeline")
	}
}

func TestLogin_StubCredentials(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"test","password":"test"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "username" && c.Value == "test" {
			found = true
		}
	}
	if !found {
		t.Fatal("username cookie not set")
	}

	req = httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"test","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
