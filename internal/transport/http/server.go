package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
)

// NewServer builds the read-only status server. history may be nil.
func NewServer(status StatusSource, history HistorySource, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.StatusAddr,
		Handler:           NewRouter(status, history, cfg.HistoryLimit, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewRouter registers the status routes on a fresh gin engine.
func NewRouter(status StatusSource, history HistorySource, historyLimit int, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))

	h := NewStatusHandlers(status, history, historyLimit, logger)
	r.GET("/health", healthHandler)

	api := r.Group("/api")
	api.GET("/channels", h.Channels)
	api.GET("/presence", h.Presence)
	api.GET("/channels/:channel/history", h.History)

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
