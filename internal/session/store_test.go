package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/chat"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(NewFileStorage(dir), 5, zerolog.Nop())

	var tick int64
	store.now = func() time.Time {
		tick++
		return time.UnixMilli(1700000000000 + tick*1000)
	}
	var seq int
	store.newID = func() string {
		seq++
		return fmt.Sprintf("session-%d", seq)
	}
	return store, dir
}

func TestLoad_EmptyStorageCreatesWelcomeSession(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load(context.Background())

	active, ok := store.Active()
	if !ok {
		t.Fatal("expected an active session")
	}
	if len(active.Messages) != 0 {
		t.Fatalf("welcome session must start empty, got %d messages", len(active.Messages))
	}
	if active.Title == "" {
		t.Fatal("welcome session must carry a derived title")
	}
}

func TestLoad_CorruptDocumentFallsBackToFresh(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, StorageKey+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store.Load(context.Background())
	if _, ok := store.Active(); !ok {
		t.Fatal("corrupt storage must still yield a usable collection")
	}
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestStore(t)
	store.Load(ctx)
	store.SetActiveConversation(ctx, []chat.Message{
		userMsg("m1", "What is the leave policy?"),
		assistantMsg("m2", "You have 24 days of paid leave."),
	})
	store.CreateSession(ctx, []chat.Message{
		userMsg("m3", "how do I deploy the api"),
	})
	want := store.Sessions()

	reopened := NewStore(NewFileStorage(dir), 5, zerolog.Nop())
	reopened.Load(ctx)
	got := reopened.Sessions()

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("restored sessions differ\n got: %+v\nwant: %+v", got, want)
	}
	if reopened.ActiveID() != want[0].ID {
		t.Fatalf("active must be the newest restored session, got %s", reopened.ActiveID())
	}
}

func TestLoad_UpgradesLegacyDocument(t *testing.T) {
	store, dir := newTestStore(t)
	legacy := `{"messages":[{"id":"m1","role":"user","parts":[{"type":"text","text":"What is the leave policy?"}]}],"durations":{"m1-0":120.5}}`
	path := filepath.Join(dir, StorageKey+".json")
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	store.Load(context.Background())
	sessions := store.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("expected one upgraded session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.Title != defaultCategory {
		t.Fatalf("legacy sessions keep the default title, got %q", s.Title)
	}
	if len(s.Messages) != 1 || chat.TextOf(s.Messages[0]) != "What is the leave policy?" {
		t.Fatalf("legacy messages not preserved: %+v", s.Messages)
	}
	if s.Durations["m1-0"] != 120.5 {
		t.Fatalf("legacy durations not preserved: %+v", s.Durations)
	}
}

func TestCreateSession_EvictsBeyondLimit(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	store.Load(ctx)

	for i := 0; i < 6; i++ {
		store.CreateSession(ctx, []chat.Message{
			userMsg(fmt.Sprintf("m%d", i), fmt.Sprintf("a substantive question number %d", i)),
		})
	}

	sessions := store.Sessions()
	if len(sessions) != 5 {
		t.Fatalf("expected 5 sessions after eviction, got %d", len(sessions))
	}
	if sessions[0].ID != store.ActiveID() {
		t.Fatal("newest session must be active and first")
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i-1].CreatedAt < sessions[i].CreatedAt {
			t.Fatal("sessions must be ordered newest first")
		}
	}
}

func TestSetActiveConversation_RederivesTitle(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	store.Load(ctx)

	store.SetActiveConversation(ctx, []chat.Message{userMsg("m1", "close this deal with the client")})
	active, _ := store.Active()
	if active.Title[:len("Sales Support")] != "Sales Support" {
		t.Fatalf("title not re-derived, got %q", active.Title)
	}

	store.SetActiveConversation(ctx, []chat.Message{userMsg("m1", "What is the leave policy?")})
	active, _ = store.Active()
	if active.Title[:len("HR Assistance")] != "HR Assistance" {
		t.Fatalf("title not re-derived after edit, got %q", active.Title)
	}
}

func TestSelectSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	store.Load(ctx)
	first := store.ActiveID()
	store.CreateSession(ctx, []chat.Message{userMsg("m1", "tell me about the workflow")})

	if !store.SelectSession(first) {
		t.Fatal("selecting a known session must succeed")
	}
	if store.ActiveID() != first {
		t.Fatal("active id not switched")
	}
	if store.SelectSession("missing") {
		t.Fatal("selecting an unknown session must be a no-op")
	}
	if store.ActiveID() != first {
		t.Fatal("failed select must not change the active id")
	}
}

func TestSetDuration(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	store.Load(ctx)

	store.SetDuration(ctx, "m1-0", 340.2)
	active, _ := store.Active()
	if active.Durations["m1-0"] != 340.2 {
		t.Fatalf("duration not recorded: %+v", active.Durations)
	}
}
