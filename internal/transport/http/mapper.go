package http

import (
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/session"
)

// ChannelResponse describes one open channel.
type ChannelResponse struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Peer   string `json:"peer,omitempty"`
	Unread int    `json:"unread"`
	Active bool   `json:"active"`
}

// PresenceResponse describes who is online.
type PresenceResponse struct {
	Identity   string   `json:"identity"`
	Online     []string `json:"online"`
	SelfListed bool     `json:"self_listed"`
}

// EntryResponse is one transcript line.
type EntryResponse struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	From    string    `json:"from"`
	To      string    `json:"to,omitempty"`
	Content string    `json:"content"`
	Self    bool      `json:"self"`
	At      time.Time `json:"at"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func channelsFromSnapshot(snap session.Snapshot) []ChannelResponse {
	return lo.Map(snap.Channels, func(info core.ChannelInfo, _ int) ChannelResponse {
		kind := "private"
		if info.Channel.IsPublic() {
			kind = "public"
		}
		return ChannelResponse{
			Name:   info.Channel.String(),
			Kind:   kind,
			Peer:   info.Channel.Peer,
			Unread: info.Unread,
			Active: info.Active,
		}
	})
}

func presenceFromSnapshot(snap session.Snapshot) PresenceResponse {
	online := snap.Online
	if online == nil {
		online = []string{}
	}
	return PresenceResponse{Identity: snap.Identity, Online: online, SelfListed: snap.SelfListed}
}

func entriesToResponse(entries []core.Entry) []EntryResponse {
	return lo.Map(entries, func(e core.Entry, _ int) EntryResponse {
		return EntryResponse{
			ID:      e.ID,
			Kind:    e.Kind.String(),
			From:    e.From,
			To:      e.To,
			Content: e.Content,
			Self:    e.Self,
			At:      e.At,
		}
	})
}
