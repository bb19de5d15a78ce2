package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/chat"
	"github.com/onboardly/onboardly/internal/config"
	"github.com/onboardly/onboardly/internal/moderation"
	"github.com/onboardly/onboardly/internal/safety"
)

// Generator produces the tool-augmented event stream for one turn.
type Generator interface {
	Run(ctx context.Context, history []chat.Message) <-chan chat.Event
}

type Handler struct {
	Cfg        config.Config
	Moderation moderation.Classifier
	Alerter    *safety.Alerter
	Orch       Generator
	Logger     zerolog.Logger
}

func NewHandler(cfg config.Config, classifier moderation.Classifier, alerter *safety.Alerter, orch Generator, logger zerolog.Logger) *Handler {
	return &Handler{
		Cfg:        cfg,
		Moderation: classifier,
		Alerter:    alerter,
		Orch:       orch,
		Logger:     logger,
	}
}
