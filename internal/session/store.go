package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/chat"
	"github.com/onboardly/onboardly/internal/common"
)

// StorageKey is the single document key holding the session collection.
const StorageKey = "chat-sessions"

const DefaultMaxSessions = 5

// Store owns the session collection and the active-session id; all state
// changes go through its explicit mutation methods. Every mutation that
// changes messages recomputes the title, re-applies the eviction rule and
// persists before returning. Storage failures degrade to an empty
// collection on load and to a logged warning on save; they never propagate.
type Store struct {
	storage DocumentStorage
	max     int
	logger  zerolog.Logger

	sessions []ChatSession
	activeID string

	now   func() time.Time
	newID func() string
}

func NewStore(storage DocumentStorage, max int, logger zerolog.Logger) *Store {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Store{
		storage: storage,
		max:     max,
		logger:  logger,
		now:     time.Now,
		newID:   newSessionID,
	}
}

func newSessionID() string {
	id, err := common.NewULID()
	if err != nil {
		// ULID generation only fails if the entropy source does
		return "session-" + time.Now().Format("20060102150405.000000000")
	}
	return "session-" + id
}

// storedDoc covers both the current collection format and the legacy
// single-session document it replaced.
type storedDoc struct {
	Sessions  []ChatSession      `json:"sessions"`
	Messages  []chat.Message     `json:"messages"`
	Durations map[string]float64 `json:"durations"`
}

// Load restores the collection from storage. A missing or corrupt document
// yields a fresh collection with one empty session; a legacy document is
// upgraded into a one-element collection.
func (s *Store) Load(ctx context.Context) {
	restored := s.restore(ctx)
	if len(restored) > 0 {
		s.sessions = EnforceLimit(restored, "", s.max)
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].ID
		}
		return
	}

	welcome := s.newSession(nil)
	s.sessions = []ChatSession{welcome}
	s.activeID = welcome.ID
	s.persist(ctx)
}

func (s *Store) restore(ctx context.Context) []ChatSession {
	doc, err := s.storage.Load(ctx, StorageKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load sessions from storage")
		return nil
	}
	if doc == nil {
		return nil
	}

	var stored storedDoc
	if err := json.Unmarshal(doc, &stored); err != nil {
		s.logger.Error().Err(err).Msg("failed to parse stored sessions")
		return nil
	}
	if stored.Sessions != nil {
		return stored.Sessions
	}
	if stored.Messages != nil {
		// legacy single-session document
		now := s.now().UnixMilli()
		durations := stored.Durations
		if durations == nil {
			durations = map[string]float64{}
		}
		return []ChatSession{{
			ID:        s.newID(),
			Title:     defaultCategory,
			CreatedAt: now,
			Messages:  stored.Messages,
			Durations: durations,
		}}
	}
	return nil
}

func (s *Store) persist(ctx context.Context) {
	doc, err := json.Marshal(storedDoc{Sessions: s.sessions})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to serialize sessions")
		return
	}
	if err := s.storage.Save(ctx, StorageKey, doc); err != nil {
		s.logger.Error().Err(err).Msg("failed to save sessions to storage")
	}
}

func (s *Store) newSession(initial []chat.Message) ChatSession {
	createdAt := s.now().UnixMilli()
	return ChatSession{
		ID:        s.newID(),
		Title:     Title(initial, createdAt),
		CreatedAt: createdAt,
		Messages:  initial,
		Durations: map[string]float64{},
	}
}

// CreateSession starts a new session, makes it active, and persists the
// bounded collection.
func (s *Store) CreateSession(ctx context.Context, initial []chat.Message) ChatSession {
	sess := s.newSession(initial)
	s.sessions = append([]ChatSession{sess}, s.sessions...)
	s.activeID = sess.ID
	s.sessions = EnforceLimit(s.sessions, s.activeID, s.max)
	s.persist(ctx)
	return sess
}

// SelectSession switches the active session. Selecting an unknown id is a
// no-op and returns false.
func (s *Store) SelectSession(id string) bool {
	for _, sess := range s.sessions {
		if sess.ID == id {
			s.activeID = id
			return true
		}
	}
	return false
}

func (s *Store) ActiveID() string { return s.activeID }

// Active returns a copy of the active session.
func (s *Store) Active() (ChatSession, bool) {
	for _, sess := range s.sessions {
		if sess.ID == s.activeID {
			return sess, true
		}
	}
	return ChatSession{}, false
}

// Sessions returns the display list: newest first, active-or-meaningful,
// capped at the collection bound.
func (s *Store) Sessions() []ChatSession {
	return EnforceLimit(s.sessions, s.activeID, s.max)
}

// SetActiveConversation replaces the active session's message list,
// re-derives its title, re-applies the eviction rule and persists.
func (s *Store) SetActiveConversation(ctx context.Context, messages []chat.Message) {
	for i := range s.sessions {
		if s.sessions[i].ID != s.activeID {
			continue
		}
		s.sessions[i].Messages = messages
		s.sessions[i].Title = Title(messages, s.sessions[i].CreatedAt)
		break
	}
	s.sessions = EnforceLimit(s.sessions, s.activeID, s.max)
	s.persist(ctx)
}

// SetDuration records the elapsed time of one streamed part, keyed by
// "<messageID>-<partIndex>".
func (s *Store) SetDuration(ctx context.Context, key string, ms float64) {
	for i := range s.sessions {
		if s.sessions[i].ID != s.activeID {
			continue
		}
		if s.sessions[i].Durations == nil {
			s.sessions[i].Durations = map[string]float64{}
		}
		s.sessions[i].Durations[key] = ms
		break
	}
	s.persist(ctx)
}
