// Package session runs one chat identity over a transport link. All channel, presence and
// unread state is owned by the goroutine executing Run; callers talk to it through commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

var (
	// ErrDisconnected is returned by Run when the transport drops a feed.
	ErrDisconnected = errors.New("session disconnected")
	// ErrStopped is returned by commands issued after Run has returned.
	ErrStopped = errors.New("session stopped")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrNoIdentity is returned by Open when the identity is blank.
	ErrNoIdentity = errors.New("identity is required")
)

const defaultCommandBuffer = 16

// Options configure a session.
type Options struct {
	Identity string
	// Topics may contain the identity placeholder; Open expands it.
	Topics        transport.Topics
	CommandBuffer int
}

// Session is a connected chat identity.
type Session struct {
	identity string
	topics   transport.Topics
	conn     transport.Conn
	public   <-chan []byte
	private  <-chan []byte

	registry *core.Registry
	presence *core.Presence
	router   *core.Router

	commands chan *Command
	done     chan struct{}
	running  atomic.Bool
	closing  atomic.Bool
	stopOnce sync.Once

	log *zerolog.Logger
}

// Open connects identity, subscribes the public and private feeds and announces the login.
// On any failure the link is closed and no session is returned.
func Open(ctx context.Context, dialer transport.Dialer, opts Options, sink core.Sink, logger *zerolog.Logger) (*Session, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	identity := strings.TrimSpace(opts.Identity)
	if identity == "" {
		return nil, ErrNoIdentity
	}

	conn, err := dialer.Connect(ctx, identity)
	if err != nil {
		var ce *transport.ConnectError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, &transport.ConnectError{Addr: "transport", Err: err}
	}

	topics := opts.Topics.Expand(identity)
	public, err := conn.Subscribe(ctx, topics.Public)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe public feed %s: %w", topics.Public, err)
	}
	private, err := conn.Subscribe(ctx, topics.Private)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe private feed %s: %w", topics.Private, err)
	}

	login, err := proto.EncodeLogin(identity)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("encode login: %w", err)
	}
	if err := conn.Publish(ctx, topics.Login, login); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("announce login: %w", err)
	}

	buffer := opts.CommandBuffer
	if buffer <= 0 {
		buffer = defaultCommandBuffer
	}

	sessionLog := logger.With().Str("identity", identity).Logger()
	registry := core.NewRegistry(sink)
	presence := core.NewPresence(identity)

	sessionLog.Info().Str("public", topics.Public).Str("private", topics.Private).Msg("session opened")

	return &Session{
		identity: identity,
		topics:   topics,
		conn:     conn,
		public:   public,
		private:  private,
		registry: registry,
		presence: presence,
		router:   core.NewRouter(identity, registry, presence, &sessionLog),
		commands: make(chan *Command, buffer),
		done:     make(chan struct{}),
		log:      &sessionLog,
	}, nil
}

// Identity returns the local identity.
func (s *Session) Identity() string {
	return s.identity
}

// Run processes inbound payloads and commands until ctx is cancelled, the link drops or
// Shutdown is called. It returns nil after Shutdown.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.stopOnce.Do(func() { close(s.done) })

	for {
		select {
		case data, ok := <-s.public:
			if !ok {
				return s.feedClosed("public")
			}
			s.handleInbound(data, "public")
		case data, ok := <-s.private:
			if !ok {
				return s.feedClosed("private")
			}
			s.handleInbound(data, "private")
		case cmd := <-s.commands:
			s.handleCommand(ctx, cmd)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Shutdown closes the transport link. A running loop returns nil.
func (s *Session) Shutdown() error {
	s.closing.Store(true)
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

// Send publishes content to whichever channel is active when the loop picks the command up.
// It returns the intent that was published, or nil when content was blank.
func (s *Session) Send(ctx context.Context, content string) (*core.Intent, error) {
	res, err := s.do(ctx, &Command{Kind: CommandSend, Content: content})
	return res.sent, err
}

// Activate makes ch the active channel, creating a private channel if needed.
func (s *Session) Activate(ctx context.Context, ch core.Channel) error {
	_, err := s.do(ctx, &Command{Kind: CommandActivate, Channel: ch})
	return err
}

// CloseChannel closes a private channel.
func (s *Session) CloseChannel(ctx context.Context, ch core.Channel) error {
	_, err := s.do(ctx, &Command{Kind: CommandCloseChannel, Channel: ch})
	return err
}

// Snapshot copies the current state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := s.do(ctx, &Command{Kind: CommandSnapshot})
	return res.snapshot, err
}

func (s *Session) do(ctx context.Context, cmd *Command) (result, error) {
	cmd.reply = make(chan result, 1)
	select {
	case s.commands <- cmd:
	case <-s.done:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-s.done:
		select {
		case res := <-cmd.reply:
			return res, res.err
		default:
			return result{}, ErrStopped
		}
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (s *Session) feedClosed(feed string) error {
	if s.closing.Load() {
		s.log.Info().Msg("session closed")
		return nil
	}
	s.log.Warn().Str("feed", feed).Msg("feed closed by transport")
	return ErrDisconnected
}

func (s *Session) handleInbound(data []byte, feed string) {
	ev, err := proto.Decode(data)
	if err != nil {
		s.log.Warn().Err(err).Str("feed", feed).Msg("drop malformed payload")
		return
	}
	if err := s.router.Dispatch(ev); err != nil {
		s.log.Warn().Err(err).Str("feed", feed).Str("event", ev.Kind.String()).Msg("drop inbound event")
	}
}

func (s *Session) handleCommand(ctx context.Context, cmd *Command) {
	var res result
	switch cmd.Kind {
	case CommandSend:
		res.sent, res.err = s.send(ctx, cmd.Content)
	case CommandActivate:
		res.err = s.registry.Activate(cmd.Channel)
		if res.err == nil {
			s.log.Debug().Str("channel", s.registry.CurrentTarget().String()).Msg("channel activated")
		}
	case CommandCloseChannel:
		res.err = s.registry.Close(cmd.Channel)
		if res.err == nil {
			s.log.Debug().Str("channel", cmd.Channel.String()).Msg("channel closed")
		}
	case CommandSnapshot:
		res.snapshot = s.snapshot()
	default:
		res.err = fmt.Errorf("unknown command %s", cmd.Kind)
	}
	cmd.reply <- res
}

func (s *Session) send(ctx context.Context, content string) (*core.Intent, error) {
	intent, ok := s.router.Compose(content)
	if !ok {
		return nil, nil
	}
	payload, err := proto.EncodeIntent(s.identity, intent)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", intent.Target, err)
	}
	destination := s.topics.Chat
	if intent.Kind == core.IntentPrivateChat {
		destination = s.topics.PrivateChat
	}
	if err := s.conn.Publish(ctx, destination, payload); err != nil {
		return nil, fmt.Errorf("publish to %s: %w", destination, err)
	}
	return &intent, nil
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Identity:   s.identity,
		Active:     s.registry.CurrentTarget(),
		Channels:   s.registry.Channels(),
		Online:     s.presence.List(),
		SelfListed: s.presence.SelfListed(),
	}
}
