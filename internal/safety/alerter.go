package safety

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/metrics"
)

const alertSubject = "Safety Alert Triggered"

// Alerter dispatches safety alerts as fire-and-forget side effects. A
// dispatch never blocks, never retries, and never affects the chat
// response; failures are logged and journaled only.
type Alerter struct {
	Notifier  Notifier
	Recipient string
	Journal   *Journal // optional
	Logger    zerolog.Logger
	Timeout   time.Duration
}

func NewAlerter(n Notifier, recipient string, journal *Journal, logger zerolog.Logger) *Alerter {
	return &Alerter{
		Notifier:  n,
		Recipient: recipient,
		Journal:   journal,
		Logger:    logger,
		Timeout:   15 * time.Second,
	}
}

// Dispatch launches the alert in a detached goroutine with its own error
// boundary and deadline. It is deliberately not tied to the request
// context: the response path must not wait on or be cancelled into it.
func (a *Alerter) Dispatch(username, text string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.Logger.Error().Interface("panic", r).Msg("safety alert dispatch panicked")
			}
		}()
		a.dispatch(username, text)
	}()
}

func (a *Alerter) dispatch(username, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
	defer cancel()

	body := fmt.Sprintf("username = %s\n\nText = %s", username, text)
	err := a.Notifier.Notify(ctx, a.Recipient, alertSubject, body)
	if err != nil {
		a.Logger.Error().Err(err).
			Str("channel", a.Notifier.Name()).
			Str("username", username).
			Msg("failed to send safety alert")
		metrics.AlertFailures.Inc()
	} else {
		metrics.AlertsDispatched.WithLabelValues(a.Notifier.Name()).Inc()
	}

	if a.Journal != nil {
		if jerr := a.Journal.Record(ctx, username, excerpt(text), a.Notifier.Name(), err); jerr != nil {
			a.Logger.Error().Err(jerr).Msg("failed to journal safety alert")
		}
	}
}

func excerpt(text string) string {
	const max = 500
	if len(text) <= max {
		return text
	}
	return text[:max]
}
