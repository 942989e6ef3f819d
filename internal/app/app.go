package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/session"
	"github.com/vovakirdan/wirechat-client/internal/sink"
	"github.com/vovakirdan/wirechat-client/internal/store"
	"github.com/vovakirdan/wirechat-client/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-client/internal/transport/http"
	"github.com/vovakirdan/wirechat-client/internal/transport/memory"
)

// App wires the session to its transport, renderers and status server.
type App struct {
	cfg             config.Config
	session         *session.Session
	console         *sink.Console
	transcript      *store.Transcript
	store           store.Store
	relay           *memory.Relay
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New connects the session described by cfg. Chat output goes to out.
func New(ctx context.Context, cfg config.Config, out io.Writer, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := sqlite.New(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Debug().Str("history_path", cfg.HistoryPath).Msg("transcript store initialized")

	dialer, defaults, relay, err := newDialer(cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	console := sink.NewConsole(out)
	transcript := store.NewTranscript(st, logger)

	s, err := session.Open(ctx, dialer, session.Options{
		Identity: cfg.Identity,
		Topics:   resolveTopics(cfg.Topics, defaults),
	}, sink.Fanout{console, transcript}, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := &App{
		cfg:             cfg,
		session:         s,
		console:         console,
		transcript:      transcript,
		store:           st,
		relay:           relay,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
	if cfg.StatusAddr != "" {
		a.server = transporthttp.NewServer(s, transcript, cfg, logger)
	}
	if relay != nil {
		relay.ServerInfo("memory transport: messages stay in this process")
	}
	return a, nil
}

// Session returns the connected session.
func (a *App) Session() *session.Session {
	return a.session
}

// Console returns the renderer used for chat output.
func (a *App) Console() *sink.Console {
	return a.console
}

// Run drives the session and the optional status server until ctx is cancelled or the link drops.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	if a.server != nil {
		a.log.Info().Str("addr", a.server.Addr).Msg("status server listening")
		go func() {
			if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
				serverErr <- err
			}
		}()
	}

	sessionErr := make(chan error, 1)
	go func() {
		sessionErr <- a.session.Run(ctx)
	}()

	var err error
	select {
	case err = <-sessionErr:
	case err = <-serverErr:
		err = fmt.Errorf("status server: %w", err)
		_ = a.session.Shutdown()
		<-sessionErr
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	a.shutdownServer()
	a.cleanup()
	return err
}

func (a *App) shutdownServer() {
	if a.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	a.log.Info().Msg("shutting down status server")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("status server shutdown")
	}
}

// cleanup closes the transport and the transcript store.
func (a *App) cleanup() {
	if err := a.session.Shutdown(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close transport")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Debug().Msg("store closed")
		}
	}
}
