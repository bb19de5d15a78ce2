package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onboardly/onboardly/internal/chat"
	"github.com/onboardly/onboardly/internal/common"
	"github.com/onboardly/onboardly/internal/metrics"
	"github.com/onboardly/onboardly/internal/safety"
)

type chatReq struct {
	Messages []chat.Message `json:"messages" binding:"required"`
	Username string         `json:"username"`
}

// Chat runs one turn of the request pipeline: safety scan (fire-and-forget),
// moderation gate (awaited, fail-closed), then either a denial stream or
// the tool-augmented generation, written out as SSE.
func (h *Handler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if len(req.Messages) == 0 {
		common.Fail(c, http.StatusBadRequest, 10002, "messages required")
		return
	}

	username := req.Username
	if username == "" {
		// gin unescapes cookie values
		if v, err := c.Cookie("username"); err == nil && v != "" {
			username = v
		}
	}
	if username == "" {
		username = "unknown"
	}

	metrics.ChatTurns.Inc()

	// the whole turn is bounded by a wall-clock ceiling
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Cfg.TurnTimeout)
	defer cancel()

	latest := chat.LatestUserText(req.Messages)

	var events <-chan chat.Event
	if latest != "" {
		// independent of the moderation verdict; never awaited
		if safety.IsSafetyRelated(latest) {
			h.Alerter.Dispatch(username, latest)
		}

		verdict, err := h.Moderation.Classify(ctx, latest)
		if err != nil {
			// fail-closed: an unreachable classifier blocks the turn
			metrics.ModerationFailures.Inc()
			h.Logger.Error().Err(err).Msg("moderation classification failed")
			common.Fail(c, http.StatusBadGateway, 50201, "content screening unavailable")
			return
		}
		if verdict.Flagged {
			metrics.ModerationBlocked.Inc()
			events = chat.DenialStream(verdict.DenialMessage)
		}
	}
	if events == nil {
		events = h.Orch.Run(ctx, req.Messages)
	}

	h.writeEventStream(c, ctx, events)
}

func (h *Handler) writeEventStream(c *gin.Context, ctx context.Context, events <-chan chat.Event) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "event: error\ndata: flusher not supported\n\n")
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				fmt.Fprintf(c.Writer, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				fmt.Fprintf(c.Writer, "data: {\"type\":\"error\",\"message\":\"encoding failed\"}\n\n")
				flusher.Flush()
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", b)
			flusher.Flush()

		case <-ctx.Done():
			// client abort or turn deadline: stop without finish
			return
		}
	}
}
