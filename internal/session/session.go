package session

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/onboardly/onboardly/internal/chat"
)

// ChatSession is one conversation. ID and CreatedAt are assigned at
// creation and never change; Title is derived from Messages and recomputed
// on every mutation, never set independently.
type ChatSession struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	CreatedAt int64              `json:"createdAt"` // unix milliseconds
	Messages  []chat.Message     `json:"messages"`
	Durations map[string]float64 `json:"durations"`
}

type categoryRule struct {
	title    string
	keywords []string
}

// categoryRules is ordered; the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{"HR Assistance", []string{"leave", "policy", "employee", "hr"}},
	{"Sales Support", []string{"sales", "pipeline", "deal", "client"}},
	{"Marketing Strategy", []string{"marketing", "campaign", "brand"}},
	{"Developer Guidance", []string{"code", "deploy", "bug", "engineer", "api"}},
	{"Operations Help", []string{"sop", "process", "workflow"}},
}

const defaultCategory = "General Assistance"

// Title derives the session title from its user messages and creation date,
// e.g. "HR Assistance · Sep 1".
func Title(messages []chat.Message, createdAt int64) string {
	var parts []string
	for _, m := range messages {
		if m.Role == chat.RoleUser {
			parts = append(parts, strings.ToLower(chat.TextOf(m)))
		}
	}
	userContent := strings.Join(parts, " ")

	category := defaultCategory
	for _, rule := range categoryRules {
		matched := false
		for _, kw := range rule.keywords {
			if strings.Contains(userContent, kw) {
				matched = true
				break
			}
		}
		if matched {
			category = rule.title
			break
		}
	}

	dateLabel := time.UnixMilli(createdAt).Format("Jan 2")
	return category + " · " + dateLabel
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

var trivialTokens = map[string]bool{
	"hi": true, "hello": true, "hey": true, "hii": true, "hiii": true,
	"sup": true, "test": true, "hola": true, "yo": true, "ok": true,
	"okay": true,
}

func isMeaningfulUserMessage(m chat.Message) bool {
	if m.Role != chat.RoleUser {
		return false
	}
	text := strings.ToLower(chat.TextOf(m))
	if len(text) < 8 {
		return false
	}
	cleaned := strings.TrimSpace(nonAlnum.ReplaceAllString(text, ""))
	return len(cleaned) >= 8 && !trivialTokens[cleaned]
}

// IsMeaningful reports whether the session contains at least one
// substantive user message. Only meaningful sessions (or the active one)
// survive eviction.
func IsMeaningful(s ChatSession) bool {
	for _, m := range s.Messages {
		if isMeaningfulUserMessage(m) {
			return true
		}
	}
	return false
}

// EnforceLimit orders sessions newest-first, drops non-meaningful inactive
// sessions, and caps the set at max. The active session is always retained,
// displacing the oldest retained session if it falls outside the cap.
func EnforceLimit(sessions []ChatSession, activeID string, max int) []ChatSession {
	sorted := append([]ChatSession(nil), sessions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})

	var limited []ChatSession
	var active *ChatSession
	for i := range sorted {
		s := sorted[i]
		if s.ID != activeID && !IsMeaningful(s) {
			continue
		}
		if s.ID == activeID {
			active = &sorted[i]
		}
		limited = append(limited, s)
	}

	if len(limited) <= max {
		return limited
	}

	capped := limited[:max]
	if active != nil && !containsID(capped, activeID) {
		capped = append(capped[:max-1], *active)
	}
	return capped
}

func containsID(sessions []ChatSession, id string) bool {
	for _, s := range sessions {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Preview summarizes a session for display: the last assistant text, else
// the first user text, else the welcome message, truncated to 80 chars.
func Preview(s ChatSession) string {
	text := ""
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == chat.RoleAssistant {
			text = chat.TextOf(s.Messages[i])
			break
		}
	}
	if text == "" {
		for _, m := range s.Messages {
			if m.Role == chat.RoleUser {
				text = chat.TextOf(m)
				break
			}
		}
	}
	if text == "" {
		text = chat.WelcomeMessage
	}

	runes := []rune(text)
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return text
}
