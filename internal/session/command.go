package session

import "github.com/vovakirdan/wirechat-client/internal/core"

// CommandKind describes what the user asked the session to do.
type CommandKind int

const (
	// CommandSend publishes content to the channel active when the command is processed.
	CommandSend CommandKind = iota
	// CommandActivate makes a channel the active one.
	CommandActivate
	// CommandCloseChannel closes a private channel.
	CommandCloseChannel
	// CommandSnapshot copies the session state.
	CommandSnapshot
)

func (k CommandKind) String() string {
	switch k {
	case CommandSend:
		return "send"
	case CommandActivate:
		return "activate"
	case CommandCloseChannel:
		return "close_channel"
	case CommandSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Command is a request handled on the session goroutine.
type Command struct {
	Kind    CommandKind
	Content string
	Channel core.Channel

	reply chan result
}

type result struct {
	err      error
	sent     *core.Intent
	snapshot Snapshot
}

// Snapshot is a copy of the session state, safe to use from any goroutine.
type Snapshot struct {
	Identity   string
	Active     core.Channel
	Channels   []core.ChannelInfo
	Online     []string
	SelfListed bool
}

// Unread returns the unread count of ch, or zero when ch is not open.
func (s Snapshot) Unread(ch core.Channel) int {
	for _, info := range s.Channels {
		if info.Channel == ch {
			return info.Unread
		}
	}
	return 0
}

// Has reports whether ch is open.
func (s Snapshot) Has(ch core.Channel) bool {
	for _, info := range s.Channels {
		if info.Channel == ch {
			return true
		}
	}
	return false
}
