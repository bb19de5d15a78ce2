package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/ai"
	"github.com/onboardly/onboardly/internal/chat"
	"github.com/onboardly/onboardly/internal/config"
	"github.com/onboardly/onboardly/internal/httpapi"
	"github.com/onboardly/onboardly/internal/httpapi/handlers"
	"github.com/onboardly/onboardly/internal/moderation"
	"github.com/onboardly/onboardly/internal/safety"
	"github.com/onboardly/onboardly/internal/tools"
	"github.com/onboardly/onboardly/internal/vectordb"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	classifier := moderation.NewClient(cfg.ModerationBaseURL, cfg.ModerationAPIKey, cfg.ModerationModel)

	var journal *safety.Journal
	if cfg.AlertJournalPath != "" {
		var err error
		journal, err = safety.OpenJournal(cfg.AlertJournalPath)
		if err != nil {
			// the journal is an audit aid; losing it must not stop the server
			logger.Error().Err(err).Str("path", cfg.AlertJournalPath).Msg("alert journal unavailable")
			journal = nil
		}
	}

	notifier := safety.NewNotifier(safety.NotifierConfig{
		WebhookURL:     cfg.AlertWebhookURL,
		ResendAPIKey:   cfg.ResendAPIKey,
		SendGridAPIKey: cfg.SendGridAPIKey,
		AMQPURL:        cfg.AlertAMQPURL,
		AMQPQueue:      cfg.AlertAMQPQueue,
	}, logger)
	alerter := safety.NewAlerter(notifier, cfg.AlertRecipient, journal, logger)
	logger.Info().Str("channel", notifier.Name()).Msg("safety alert channel selected")

	provider := ai.NewOpenAIProvider(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.ReasoningEffort)

	searcher := vectordb.NewClient(cfg.VectorDBHost, cfg.VectorDBAPIKey, cfg.VectorDBNamespace, cfg.VectorDBTopK)
	webSearcher := tools.NewWebSearchClient(cfg.WebSearchBaseURL, cfg.WebSearchAPIKey)
	toolset := []tools.Tool{
		tools.NewWebSearch(webSearcher),
		tools.NewDocumentSearch(searcher, cfg.CanAccessFinancials),
	}

	orch := chat.NewOrchestrator(provider, toolset, chat.SystemPrompt(time.Now()), cfg.MaxSteps, logger)

	h := handlers.NewHandler(cfg, classifier, alerter, orch, logger)
	router := httpapi.NewRouter(h, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
