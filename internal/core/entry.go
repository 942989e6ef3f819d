package core

import "time"

// EntryKind describes how a rendered entry should be presented.
type EntryKind int

const (
	EntryChat EntryKind = iota
	EntryPrivate
	EntrySystem
	EntryUnknown
)

func (k EntryKind) String() string {
	switch k {
	case EntryChat:
		return "chat"
	case EntryPrivate:
		return "private"
	case EntrySystem:
		return "system"
	default:
		return "unknown"
	}
}

// Entry is a classified event handed to a channel log.
type Entry struct {
	ID      string
	Kind    EntryKind
	From    string
	To      string
	Content string
	Self    bool
	At      time.Time
	// Unread is the channel's unread count after this entry was routed.
	Unread int
}

// ParseEntryKind is the inverse of EntryKind.String. Unknown names map to EntryUnknown.
func ParseEntryKind(s string) EntryKind {
	switch s {
	case "chat":
		return EntryChat
	case "private":
		return EntryPrivate
	case "system":
		return EntrySystem
	default:
		return EntryUnknown
	}
}
