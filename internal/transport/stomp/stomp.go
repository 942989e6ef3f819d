// Package stomp links a session to a STOMP broker reached over a WebSocket.
package stomp

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/transport"
)

// DefaultTopics match the chat server's STOMP endpoints.
var DefaultTopics = transport.Topics{
	Public:      "/topic/public",
	Private:     "/user/queue/messages",
	Login:       "/app/chat.addUser",
	Chat:        "/app/chat.sendMessage",
	PrivateChat: "/app/chat.sendPrivateMessage",
}

const contentTypeJSON = "application/json"

// Dialer connects to a STOMP-over-WebSocket endpoint.
type Dialer struct {
	URL         string
	Host        string
	DialTimeout time.Duration
	HeartBeat   time.Duration
	Buffer      int
	Logger      *zerolog.Logger
}

// Connect dials the WebSocket and performs the STOMP handshake. The identity travels as the
// "username" query parameter and CONNECT header, never in a message body.
func (d *Dialer) Connect(ctx context.Context, identity string) (transport.Conn, error) {
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, &transport.ConnectError{Addr: d.URL, Err: err}
	}
	q := u.Query()
	q.Set("username", identity)
	u.RawQuery = q.Encode()

	timeout := d.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialCtx, cancelDial := context.WithTimeout(ctx, timeout)
	defer cancelDial()

	ws, _, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{
		Subprotocols: []string{"v12.stomp", "v11.stomp", "v10.stomp"},
	})
	if err != nil {
		return nil, &transport.ConnectError{Addr: d.URL, Err: err}
	}
	ws.SetReadLimit(1 << 20)

	// The net.Conn outlives the dial context; it is cancelled by Close.
	netCtx, cancelNet := context.WithCancel(context.Background())
	nc := websocket.NetConn(netCtx, ws, websocket.MessageText)

	host := d.Host
	if host == "" {
		host = u.Hostname()
	}

	_ = nc.SetDeadline(time.Now().Add(timeout))
	sc, err := stomp.Connect(nc,
		stomp.ConnOpt.Host(host),
		stomp.ConnOpt.Header("username", identity),
		stomp.ConnOpt.HeartBeat(d.HeartBeat, d.HeartBeat),
	)
	if err != nil {
		cancelNet()
		_ = ws.Close(websocket.StatusNormalClosure, "handshake failed")
		return nil, &transport.ConnectError{Addr: d.URL, Err: err}
	}
	_ = nc.SetDeadline(time.Time{})

	buffer := d.Buffer
	if buffer <= 0 {
		buffer = 64
	}

	logger.Info().Str("url", d.URL).Str("identity", identity).Str("version", string(sc.Version())).Msg("stomp connected")

	return &Conn{
		stomp:  sc,
		ws:     ws,
		nc:     nc,
		cancel: cancelNet,
		buffer: buffer,
		log:    logger,
		done:   make(chan struct{}),
	}, nil
}

// Conn is an established STOMP link.
type Conn struct {
	stomp  *stomp.Conn
	ws     *websocket.Conn
	nc     net.Conn
	cancel context.CancelFunc
	buffer int
	log    *zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// Subscribe subscribes to a destination with automatic acknowledgement.
func (c *Conn) Subscribe(_ context.Context, topic string) (<-chan []byte, error) {
	select {
	case <-c.done:
		return nil, transport.ErrClosed
	default:
	}

	sub, err := c.stomp.Subscribe(topic, stomp.AckAuto, stomp.SubscribeOpt.Id(uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	out := make(chan []byte, c.buffer)
	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-sub.C:
				if !ok {
					return
				}
				if msg.Err != nil {
					c.log.Warn().Err(msg.Err).Str("topic", topic).Msg("stomp subscription ended")
					return
				}
				select {
				case out <- msg.Body:
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

// Publish sends payload as a JSON SEND frame.
func (c *Conn) Publish(_ context.Context, destination string, payload []byte) error {
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}
	if err := c.stomp.Send(destination, contentTypeJSON, payload); err != nil {
		return fmt.Errorf("send %s: %w", destination, err)
	}
	return nil
}

// Close disconnects from the broker and closes the WebSocket.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		// Disconnect waits for a RECEIPT frame.
		_ = c.nc.SetDeadline(time.Now().Add(2 * time.Second))
		if err := c.stomp.Disconnect(); err != nil {
			c.log.Debug().Err(err).Msg("stomp disconnect")
		}
		c.cancel()
		_ = c.ws.Close(websocket.StatusNormalClosure, "bye")
	})
	return nil
}
