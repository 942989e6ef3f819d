// Package memory provides an in-process relay that plays the chat server's role.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

// DefaultTopics are the names the relay uses unless told otherwise.
var DefaultTopics = transport.Topics{
	Public:      "chat.public",
	Private:     "chat.user.{identity}",
	Login:       "chat.login",
	Chat:        "chat.send",
	PrivateChat: "chat.private",
}

const serverName = "Server"

// ErrUnknownDestination is returned when publishing to a name the relay does not serve.
var ErrUnknownDestination = errors.New("unknown destination")

// Relay fans published payloads out the way the chat server does: chat goes to everyone,
// private chat goes to the recipient and back to the sender, and every login or logout
// triggers a full roster snapshot.
type Relay struct {
	topics transport.Topics
	buffer int
	log    *zerolog.Logger

	mu    sync.Mutex
	conns []*conn
}

// NewRelay builds a relay. buffer is the per-feed queue size; a full queue drops payloads.
func NewRelay(topics transport.Topics, buffer int, logger *zerolog.Logger) *Relay {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Relay{topics: topics, buffer: buffer, log: logger}
}

// Connect registers a new link for identity.
func (r *Relay) Connect(ctx context.Context, identity string) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, &transport.ConnectError{Addr: "memory", Err: err}
	}
	if strings.TrimSpace(identity) == "" {
		return nil, &transport.ConnectError{Addr: "memory", Err: errors.New("identity is required")}
	}

	c := &conn{
		relay:    r,
		identity: identity,
		topics:   r.topics.Expand(identity),
		subs:     make(map[string]chan []byte),
	}

	r.mu.Lock()
	r.conns = append(r.conns, c)
	r.mu.Unlock()

	r.log.Debug().Str("identity", identity).Msg("relay connect")
	return c, nil
}

// Online returns the distinct identities currently connected, in connect order.
func (r *Relay) Online() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineLocked()
}

// Broadcast pushes a raw payload to every public feed.
func (r *Relay) Broadcast(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(payload)
}

// DeliverTo pushes a raw payload to every private feed of identity.
func (r *Relay) DeliverTo(identity string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliverToLocked(identity, payload)
}

// ServerInfo broadcasts an informational notice.
func (r *Relay) ServerInfo(content string) {
	data, err := json.Marshal(proto.Payload{From: serverName, Content: content, Command: proto.CommandServerInfo})
	if err != nil {
		r.log.Error().Err(err).Msg("marshal server info")
		return
	}
	r.Broadcast(data)
}

func (r *Relay) publish(c *conn, destination string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.closed {
		return transport.ErrClosed
	}

	switch destination {
	case c.topics.Login:
		var login proto.LoginPayload
		if err := json.Unmarshal(payload, &login); err != nil {
			return fmt.Errorf("decode login: %w", err)
		}
		roster := r.rosterPayloadLocked()
		r.deliverToLocked(login.From, roster)
		r.broadcastLocked(roster)
		r.broadcastLocked(mustMarshal(proto.Payload{From: login.From, Command: proto.CommandJoin}))
		return nil

	case c.topics.Chat:
		r.broadcastLocked(payload)
		return nil

	case c.topics.PrivateChat:
		var msg proto.Payload
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("decode private chat: %w", err)
		}
		if msg.To == nil || *msg.To == "" {
			return fmt.Errorf("private chat from %q has no recipient", msg.From)
		}
		out := mustMarshal(proto.Payload{
			From:      msg.From,
			To:        msg.To,
			Content:   msg.Content,
			IsPrivate: true,
			Command:   proto.CommandPrivateChat,
		})
		r.deliverToLocked(*msg.To, out)
		if msg.From != *msg.To {
			r.deliverToLocked(msg.From, out)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownDestination, destination)
	}
}

func (r *Relay) disconnect(c *conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for topic, ch := range c.subs {
		close(ch)
		delete(c.subs, topic)
	}
	for i, other := range r.conns {
		if other == c {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			break
		}
	}
	r.log.Debug().Str("identity", c.identity).Msg("relay disconnect")
	r.broadcastLocked(r.rosterPayloadLocked())
}

func (r *Relay) onlineLocked() []string {
	seen := make(map[string]struct{}, len(r.conns))
	out := make([]string, 0, len(r.conns))
	for _, c := range r.conns {
		if _, ok := seen[c.identity]; ok {
			continue
		}
		seen[c.identity] = struct{}{}
		out = append(out, c.identity)
	}
	return out
}

func (r *Relay) rosterPayloadLocked() []byte {
	return mustMarshal(proto.Payload{
		From:    serverName,
		Content: strings.Join(r.onlineLocked(), ","),
		Command: proto.CommandUserListUpdate,
	})
}

func (r *Relay) broadcastLocked(payload []byte) {
	for _, c := range r.conns {
		r.deliverLocked(c, c.topics.Public, payload)
	}
}

func (r *Relay) deliverToLocked(identity string, payload []byte) {
	for _, c := range r.conns {
		if c.identity == identity {
			r.deliverLocked(c, c.topics.Private, payload)
		}
	}
}

func (r *Relay) deliverLocked(c *conn, topic string, payload []byte) {
	ch, ok := c.subs[topic]
	if !ok {
		return
	}
	select {
	case ch <- payload:
	default:
		// Drop if slow consumer.
		r.log.Warn().Str("identity", c.identity).Str("topic", topic).Msg("relay dropped payload")
	}
}

func mustMarshal(p proto.Payload) []byte {
	data, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("marshal payload: %v", err))
	}
	return data
}

type conn struct {
	relay    *Relay
	identity string
	topics   transport.Topics

	// guarded by relay.mu
	subs   map[string]chan []byte
	closed bool
}

func (c *conn) Subscribe(_ context.Context, topic string) (<-chan []byte, error) {
	r := c.relay
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.closed {
		return nil, transport.ErrClosed
	}
	if _, ok := c.subs[topic]; ok {
		return nil, fmt.Errorf("already subscribed to %s", topic)
	}
	ch := make(chan []byte, r.buffer)
	c.subs[topic] = ch
	return ch, nil
}

func (c *conn) Publish(_ context.Context, destination string, payload []byte) error {
	return c.relay.publish(c, destination, payload)
}

func (c *conn) Close() error {
	c.relay.disconnect(c)
	return nil
}
