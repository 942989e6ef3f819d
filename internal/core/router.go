package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Router classifies inbound events into channels and composes outbound intents.
// Like Registry it belongs to the session goroutine.
type Router struct {
	self     string
	registry *Registry
	presence *Presence
	log      *zerolog.Logger
	now      func() time.Time
}

// NewRouter builds a router for the local identity self.
func NewRouter(self string, registry *Registry, presence *Presence, logger *zerolog.Logger) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{
		self:     self,
		registry: registry,
		presence: presence,
		log:      logger,
		now:      time.Now,
	}
}

// Identity returns the local identity.
func (r *Router) Identity() string {
	return r.self
}

// Dispatch routes one inbound event.
func (r *Router) Dispatch(ev InboundEvent) error {
	switch ev.Kind {
	case EventJoin:
		r.log.Debug().Str("from", ev.From).Msg("join announced")
		return nil

	case EventChat:
		st, _ := r.registry.Resolve(Public)
		r.deliver(st, Entry{
			Kind:    EntryChat,
			From:    ev.From,
			Content: ev.Content,
			Self:    ev.From == r.self,
		}, true)
		return nil

	case EventPrivateChat:
		peer := r.peerOf(ev)
		st, err := r.registry.Resolve(Private(peer))
		if err != nil {
			return fmt.Errorf("route private chat from %q to %q: %w", ev.From, ev.To, err)
		}
		r.deliver(st, Entry{
			Kind:    EntryPrivate,
			From:    ev.From,
			To:      ev.To,
			Content: ev.Content,
			Self:    ev.From == r.self,
		}, peer != r.self)
		return nil

	case EventRoster:
		r.presence.Replace(ev.Roster)
		r.log.Debug().Strs("online", r.presence.List()).Msg("roster replaced")
		return nil

	case EventServerInfo:
		st, _ := r.registry.Resolve(Public)
		r.deliver(st, Entry{Kind: EntrySystem, From: ev.From, Content: ev.Content}, false)
		return nil

	case EventUnrecognized:
		r.log.Warn().Str("command", ev.Command).Msg("unrecognized command routed to public")
		st, _ := r.registry.Resolve(Public)
		r.deliver(st, Entry{Kind: EntryUnknown, From: ev.From, Content: ev.Content}, false)
		return nil

	default:
		return coreError(ErrCodeUnknownEvent, ErrUnknownEvent, fmt.Sprintf("unknown event kind %d", ev.Kind))
	}
}

// Compose binds content to the active channel. Blank content yields ok == false.
func (r *Router) Compose(content string) (Intent, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Intent{}, false
	}
	target := r.registry.CurrentTarget()
	kind := IntentChat
	if !target.IsPublic() {
		kind = IntentPrivateChat
	}
	return Intent{Kind: kind, Content: content, Target: target}, true
}

// peerOf picks whichever endpoint of a private message is not us.
func (r *Router) peerOf(ev InboundEvent) string {
	if ev.From == r.self {
		return ev.To
	}
	return ev.From
}

func (r *Router) deliver(st *ChannelState, entry Entry, countUnread bool) {
	entry.ID = uuid.NewString()
	entry.At = r.now()
	if countUnread {
		entry.Unread = r.registry.markUnread(st)
	} else {
		entry.Unread = st.Unread
	}
	st.Log.Append(entry)
}
