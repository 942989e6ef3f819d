package core

// EventKind tags an inbound event.
type EventKind int

const (
	// EventJoin announces a login; presence is driven by EventRoster only.
	EventJoin EventKind = iota
	// EventChat is a message on the shared channel.
	EventChat
	// EventPrivateChat is a one-to-one message, including echoes of our own sends.
	EventPrivateChat
	// EventRoster is a full snapshot of online identities.
	EventRoster
	// EventServerInfo is an informational notice from the server.
	EventServerInfo
	// EventUnrecognized carries a payload whose command this client does not know.
	EventUnrecognized
)

func (k EventKind) String() string {
	switch k {
	case EventJoin:
		return "join"
	case EventChat:
		return "chat"
	case EventPrivateChat:
		return "private_chat"
	case EventRoster:
		return "roster"
	case EventServerInfo:
		return "server_info"
	case EventUnrecognized:
		return "unrecognized"
	default:
		return "invalid"
	}
}

// InboundEvent is a decoded transport payload. Which fields are set depends on Kind.
type InboundEvent struct {
	Kind    EventKind
	From    string
	To      string
	Content string
	Roster  []string // EventRoster only
	Command string   // raw command, kept for EventUnrecognized
}
