// Package nats links a session to a relay reachable through a NATS server.
package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/transport"
)

// DefaultTopics are the subjects a NATS chat relay serves.
var DefaultTopics = transport.Topics{
	Public:      "chat.public",
	Private:     "chat.user.{identity}",
	Login:       "chat.login",
	Chat:        "chat.send",
	PrivateChat: "chat.private",
}

// Dialer connects to a NATS server.
type Dialer struct {
	URL         string
	DialTimeout time.Duration
	Buffer      int
	Logger      *zerolog.Logger
}

// Connect opens a NATS connection named after identity. The link never reconnects on its own;
// a lost connection closes every feed.
func (d *Dialer) Connect(ctx context.Context, identity string) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, &transport.ConnectError{Addr: d.URL, Err: err}
	}
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	timeout := d.DialTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	buffer := d.Buffer
	if buffer <= 0 {
		buffer = 64
	}

	c := &Conn{
		identity: identity,
		buffer:   buffer,
		log:      logger,
		done:     make(chan struct{}),
	}
	nc, err := nats.Connect(d.URL,
		nats.Name(identity),
		nats.Timeout(timeout),
		nats.NoReconnect(),
		nats.ClosedHandler(func(*nats.Conn) { c.markDone() }),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
	)
	if err != nil {
		return nil, &transport.ConnectError{Addr: d.URL, Err: err}
	}
	c.nc = nc

	logger.Info().Str("url", nc.ConnectedUrl()).Str("identity", identity).Msg("nats connected")
	return c, nil
}

// Conn is an established NATS link.
type Conn struct {
	nc       *nats.Conn
	identity string
	buffer   int
	log      *zerolog.Logger

	doneOnce sync.Once
	done     chan struct{}
}

func (c *Conn) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Subscribe subscribes to subject. The returned channel is closed when the link goes away.
func (c *Conn) Subscribe(_ context.Context, subject string) (<-chan []byte, error) {
	select {
	case <-c.done:
		return nil, transport.ErrClosed
	default:
	}

	msgs := make(chan *nats.Msg, c.buffer)
	sub, err := c.nc.ChanSubscribe(subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	out := make(chan []byte, c.buffer)
	go func() {
		defer close(out)
		defer func() { _ = sub.Unsubscribe() }()
		for {
			select {
			case msg := <-msgs:
				select {
				case out <- msg.Data:
				case <-c.done:
					return
				}
			case <-c.done:
				return
			}
		}
	}()
	return out, nil
}

// Publish sends payload to subject with the sender identity in a header.
func (c *Conn) Publish(_ context.Context, subject string, payload []byte) error {
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    payload,
		Header:  nats.Header{"username": []string{c.identity}},
	}
	if err := c.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drops the connection.
func (c *Conn) Close() error {
	c.nc.Close()
	c.markDone()
	return nil
}
