package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Commands carried in the payload's command field.
const (
	CommandJoin           = "JOIN"
	CommandChat           = "CHAT"
	CommandPrivateChat    = "PRIVATE_CHAT"
	CommandUserListUpdate = "USER_LIST_UPDATE"
	CommandServerInfo     = "SERVER_INFO"
	CommandLogin          = "LOGIN"
)

// ErrMalformed marks payloads that cannot be turned into an inbound event.
var ErrMalformed = errors.New("malformed payload")

// Payload is the JSON object exchanged with the chat server in both directions.
type Payload struct {
	From      string  `json:"from"`
	To        *string `json:"to"`
	Content   string  `json:"content"`
	IsPrivate bool    `json:"isPrivate"`
	Command   string  `json:"command"`
}

// LoginPayload announces the local identity once after subscribing.
type LoginPayload struct {
	From    string `json:"from"`
	Command string `json:"command"`
}

// Decode parses a transport payload into an inbound event.
func Decode(data []byte) (core.InboundEvent, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return core.InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p.Event()
}

// Event validates the payload for its command and converts it.
func (p Payload) Event() (core.InboundEvent, error) {
	to := ""
	if p.To != nil {
		to = *p.To
	}

	switch p.Command {
	case "":
		return core.InboundEvent{}, fmt.Errorf("%w: missing command", ErrMalformed)
	case CommandJoin:
		return core.InboundEvent{Kind: core.EventJoin, From: p.From}, nil
	case CommandChat:
		if p.From == "" {
			return core.InboundEvent{}, fmt.Errorf("%w: %s without from", ErrMalformed, p.Command)
		}
		return core.InboundEvent{Kind: core.EventChat, From: p.From, Content: p.Content}, nil
	case CommandPrivateChat:
		if p.From == "" || to == "" {
			return core.InboundEvent{}, fmt.Errorf("%w: %s needs from and to", ErrMalformed, p.Command)
		}
		return core.InboundEvent{Kind: core.EventPrivateChat, From: p.From, To: to, Content: p.Content}, nil
	case CommandUserListUpdate:
		return core.InboundEvent{Kind: core.EventRoster, From: p.From, Roster: ParseRoster(p.Content)}, nil
	case CommandServerInfo:
		return core.InboundEvent{Kind: core.EventServerInfo, From: p.From, Content: p.Content}, nil
	default:
		return core.InboundEvent{
			Kind:    core.EventUnrecognized,
			From:    p.From,
			To:      to,
			Content: p.Content,
			Command: p.Command,
		}, nil
	}
}

// ParseRoster splits a comma separated roster, trimming entries and dropping blanks.
// Duplicates and the local identity are left for the presence tracker.
func ParseRoster(content string) []string {
	parts := strings.Split(content, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// EncodeIntent builds the wire payload for an outbound intent sent by from.
func EncodeIntent(from string, intent core.Intent) ([]byte, error) {
	p := Payload{
		From:    from,
		Content: intent.Content,
		Command: CommandChat,
	}
	if intent.Kind == core.IntentPrivateChat {
		if intent.Target.IsPublic() || intent.Target.Peer == "" {
			return nil, fmt.Errorf("encode private intent: %w", core.ErrEmptyPeer)
		}
		to := intent.Target.Peer
		p.To = &to
		p.IsPrivate = true
		p.Command = CommandPrivateChat
	}
	return json.Marshal(p)
}

// EncodeLogin builds the login announcement for identity.
func EncodeLogin(identity string) ([]byte, error) {
	return json.Marshal(LoginPayload{From: identity, Command: CommandLogin})
}
