package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Notifier delivers one alert. Implementations are selected by which
// credential is configured, in a fixed priority order:
// webhook, Resend, SendGrid, AMQP, local log.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
	Name() string
}

type NotifierConfig struct {
	WebhookURL     string
	ResendAPIKey   string
	SendGridAPIKey string
	AMQPURL        string
	AMQPQueue      string
}

func NewNotifier(cfg NotifierConfig, logger zerolog.Logger) Notifier {
	switch {
	case cfg.WebhookURL != "":
		return &WebhookNotifier{URL: cfg.WebhookURL, Client: defaultClient()}
	case cfg.ResendAPIKey != "":
		return &ResendNotifier{APIKey: cfg.ResendAPIKey, Client: defaultClient()}
	case cfg.SendGridAPIKey != "":
		return &SendGridNotifier{APIKey: cfg.SendGridAPIKey, Client: defaultClient()}
	case cfg.AMQPURL != "":
		return &AMQPNotifier{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue}
	default:
		return &LogNotifier{Logger: logger}
	}
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func checkStatus(resp *http.Response, service string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2*1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("%s: %s", service, msg)
}

// WebhookNotifier posts the alert to a generic JSON webhook.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      recipient,
		"subject": subject,
		"text":    body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, "webhook")
}

// ResendNotifier sends the alert through the Resend email API.
type ResendNotifier struct {
	APIKey string
	Client *http.Client
}

func (n *ResendNotifier) Name() string { return "resend" }

func (n *ResendNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(map[string]any{
		"from":    "Onboardly <alerts@onboardly.ai>",
		"to":      recipient,
		"subject": subject,
		"text":    body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, "resend")
}

// SendGridNotifier sends the alert through the SendGrid mail API.
type SendGridNotifier struct {
	APIKey string
	Client *http.Client
}

func (n *SendGridNotifier) Name() string { return "sendgrid" }

func (n *SendGridNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": recipient}}},
		},
		"from":    map[string]string{"email": "safety-alert@onboardly.ai"},
		"subject": subject,
		"content": []map[string]string{{"type": "text/plain", "value": body}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.sendgrid.com/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, "sendgrid")
}

// AMQPNotifier publishes the alert onto a durable queue for an external
// consumer. The connection is opened per dispatch; alerts are rare.
type AMQPNotifier struct {
	URL   string
	Queue string
}

func (n *AMQPNotifier) Name() string { return "amqp" }

func (n *AMQPNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	conn, err := amqp.Dial(n.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(n.Queue, true, false, false, false, nil); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"recipient": recipient,
		"subject":   subject,
		"body":      body,
	})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(cctx,
		"",
		n.Queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         payload,
			Timestamp:    time.Now(),
		},
	)
}

// LogNotifier is the no-credential fallback: the alert becomes a log line.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	n.Logger.Warn().
		Str("recipient", recipient).
		Str("subject", subject).
		Str("body", body).
		Msg("safety alert (no notifier credential configured)")
	return nil
}
