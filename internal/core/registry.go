package core

import (
	"fmt"
	"strings"
)

// ChannelState is the registry's record of one live channel.
type ChannelState struct {
	Channel Channel
	Unread  int
	Visible bool
	Log     Log
}

// ChannelInfo is a copy of a channel's state safe to hand outside the session goroutine.
type ChannelInfo struct {
	Channel Channel
	Unread  int
	Active  bool
}

// Registry owns the live channels and which one is active.
// It is not safe for concurrent use; the session goroutine owns it.
type Registry struct {
	sink     Sink
	channels map[Channel]*ChannelState
	order    []Channel
	active   Channel
}

// NewRegistry creates a registry holding the public channel, already active.
func NewRegistry(sink Sink) *Registry {
	if sink == nil {
		sink = NopSink{}
	}
	r := &Registry{
		sink:     sink,
		channels: make(map[Channel]*ChannelState),
	}
	pub := r.create(Public)
	pub.Visible = true
	r.active = Public
	return r
}

// Resolve returns the state for ch, creating a private channel when it does not exist yet.
func (r *Registry) Resolve(ch Channel) (*ChannelState, error) {
	ch, err := normalize(ch)
	if err != nil {
		return nil, err
	}
	if st, ok := r.channels[ch]; ok {
		return st, nil
	}
	return r.create(ch), nil
}

// Lookup returns the state for ch without creating it.
func (r *Registry) Lookup(ch Channel) (*ChannelState, bool) {
	st, ok := r.channels[ch]
	return st, ok
}

// Activate makes ch the only visible channel and clears its unread counter.
func (r *Registry) Activate(ch Channel) error {
	st, err := r.Resolve(ch)
	if err != nil {
		return err
	}
	if prev, ok := r.channels[r.active]; ok {
		prev.Visible = false
	}
	st.Visible = true
	st.Unread = 0
	r.active = st.Channel
	return nil
}

// Close removes a private channel. Closing the active channel re-activates public.
func (r *Registry) Close(ch Channel) error {
	if ch.IsPublic() {
		return coreError(ErrCodeClosePublic, ErrClosePublic, "public channel cannot be closed")
	}
	ch, err := normalize(ch)
	if err != nil {
		return err
	}
	if _, ok := r.channels[ch]; !ok {
		return coreError(ErrCodeChannelNotFound, ErrChannelNotFound, fmt.Sprintf("no open channel for %s", ch))
	}

	delete(r.channels, ch)
	for i, c := range r.order {
		if c == ch {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.sink.Release(ch)

	if r.active == ch {
		pub := r.channels[Public]
		pub.Visible = true
		pub.Unread = 0
		r.active = Public
	}
	return nil
}

// CurrentTarget returns the active channel.
func (r *Registry) CurrentTarget() Channel {
	return r.active
}

// IsActive reports whether ch is the active channel.
func (r *Registry) IsActive(ch Channel) bool {
	return r.active == ch
}

// Channels lists public first, then private channels in creation order.
func (r *Registry) Channels() []ChannelInfo {
	out := make([]ChannelInfo, 0, len(r.order))
	for _, ch := range r.order {
		st := r.channels[ch]
		out = append(out, ChannelInfo{Channel: ch, Unread: st.Unread, Active: st.Visible})
	}
	return out
}

// Len returns the number of live channels, public included.
func (r *Registry) Len() int {
	return len(r.channels)
}

// markUnread bumps ch's counter unless it is the active channel and returns the new count.
func (r *Registry) markUnread(st *ChannelState) int {
	if st.Visible {
		return st.Unread
	}
	st.Unread++
	return st.Unread
}

func (r *Registry) create(ch Channel) *ChannelState {
	st := &ChannelState{Channel: ch, Log: r.sink.Open(ch)}
	if st.Log == nil {
		st.Log = nopLog{}
	}
	r.channels[ch] = st
	r.order = append(r.order, ch)
	return st
}

func normalize(ch Channel) (Channel, error) {
	if ch.IsPublic() {
		return Public, nil
	}
	peer := strings.TrimSpace(ch.Peer)
	if peer == "" {
		return ch, coreError(ErrCodeEmptyPeer, ErrEmptyPeer, "peer identity is empty")
	}
	return Private(peer), nil
}
