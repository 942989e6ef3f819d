package core

import "strings"

// ChannelKind distinguishes the shared channel from one-to-one channels.
type ChannelKind int

const (
	// ChannelPublic is the single shared channel every session has.
	ChannelPublic ChannelKind = iota
	// ChannelPrivate is a one-to-one channel bound to a peer identity.
	ChannelPrivate
)

// Channel identifies a logical conversation scope. It is comparable and used as a map key.
type Channel struct {
	Kind ChannelKind
	Peer string
}

// Public is the shared channel.
var Public = Channel{Kind: ChannelPublic}

// Private returns the channel bound to peer.
func Private(peer string) Channel {
	return Channel{Kind: ChannelPrivate, Peer: peer}
}

// IsPublic reports whether c is the shared channel.
func (c Channel) IsPublic() bool {
	return c.Kind == ChannelPublic
}

func (c Channel) String() string {
	if c.IsPublic() {
		return "public"
	}
	return "@" + c.Peer
}

// ParseChannel maps user-facing names back to a channel: "public" (or empty) is the
// shared channel, anything else names a peer. A leading "@" is accepted.
func ParseChannel(name string) Channel {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "public") {
		return Public
	}
	return Private(strings.TrimPrefix(name, "@"))
}
