// Package transport defines the publish/subscribe link the session runs on.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Transport kinds understood by the application.
const (
	KindSTOMP  = "stomp"
	KindNATS   = "nats"
	KindMemory = "memory"
)

// IdentityPlaceholder is replaced by the local identity in topic names.
const IdentityPlaceholder = "{identity}"

// ErrClosed is returned by operations on a closed link.
var ErrClosed = errors.New("transport closed")

// Dialer establishes a link for one identity.
type Dialer interface {
	Connect(ctx context.Context, identity string) (Conn, error)
}

// Conn is an established link. Feeds returned by Subscribe are closed when the link goes away.
type Conn interface {
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	Publish(ctx context.Context, destination string, payload []byte) error
	Close() error
}

// ConnectError reports a failed connect; no link state survives it.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Topics names the two feeds and three destinations a session uses.
type Topics struct {
	Public      string
	Private     string
	Login       string
	Chat        string
	PrivateChat string
}

// Expand substitutes the identity placeholder in every name.
func (t Topics) Expand(identity string) Topics {
	r := strings.NewReplacer(IdentityPlaceholder, identity)
	return Topics{
		Public:      r.Replace(t.Public),
		Private:     r.Replace(t.Private),
		Login:       r.Replace(t.Login),
		Chat:        r.Replace(t.Chat),
		PrivateChat: r.Replace(t.PrivateChat),
	}
}
