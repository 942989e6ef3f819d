package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/session"
)

const maxHistoryLimit = 500

// StatusSource exposes a copy of the session state.
type StatusSource interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

// HistorySource reads recorded entries of a channel.
type HistorySource interface {
	History(ctx context.Context, ch core.Channel, limit int) ([]core.Entry, error)
}

// StatusHandlers serves read-only views of a running session.
type StatusHandlers struct {
	status       StatusSource
	history      HistorySource
	historyLimit int
	log          *zerolog.Logger
}

// NewStatusHandlers creates the handlers. A non-positive historyLimit defaults to 50.
func NewStatusHandlers(status StatusSource, history HistorySource, historyLimit int, logger *zerolog.Logger) *StatusHandlers {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &StatusHandlers{status: status, history: history, historyLimit: historyLimit, log: logger}
}

// Channels lists open channels.
// GET /api/channels
func (h *StatusHandlers) Channels(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, channelsFromSnapshot(snap))
}

// Presence lists online identities.
// GET /api/presence
func (h *StatusHandlers) Presence(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, presenceFromSnapshot(snap))
}

// History returns recorded entries of a channel, oldest first.
// GET /api/channels/:channel/history?limit=N
func (h *StatusHandlers) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "history is disabled"})
		return
	}

	ch := core.ParseChannel(c.Param("channel"))
	if !ch.IsPublic() && ch.Peer == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid channel"})
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.history.History(c.Request.Context(), ch, limit)
	if err != nil {
		h.log.Error().Err(err).Str("channel", ch.String()).Msg("failed to read history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, entriesToResponse(entries))
}

func (h *StatusHandlers) snapshot(c *gin.Context) (session.Snapshot, bool) {
	snap, err := h.status.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("session snapshot unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "session unavailable"})
		return session.Snapshot{}, false
	}
	return snap, true
}
