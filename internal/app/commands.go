package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// InputKind is what a line typed by the user asks for.
type InputKind int

const (
	InputSend InputKind = iota
	InputPrivate
	InputOpen
	InputPublic
	InputClose
	InputList
	InputChannels
	InputHistory
	InputHelp
	InputQuit
)

// Input is a parsed user line.
type Input struct {
	Kind    InputKind
	Peer    string
	Content string
	Limit   int
}

var (
	// ErrUnknownCommand is returned for an unrecognized slash command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is returned when a command is missing arguments.
	ErrUsage = errors.New("usage")
)

const helpText = `commands:
  <text>                 send to the active channel
  /private <user> <msg>  open a private channel with user and send msg
  /open <user>, /dm <user>
                         open a private channel with user
  /public                switch to the public channel
  /close [user]          close a private channel (the active one by default)
  /list                  show who is online
  /channels              show open channels and unread counts
  /history [n]           show the last n entries of the active channel
  /help                  show this help
  /quit                  leave`

// ParseInput turns a typed line into an Input. Lines not starting with "/" are sent as is.
func ParseInput(line string) (Input, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return Input{Kind: InputSend, Content: line}, nil
	}

	name, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "/private", "/msg":
		peer, content, _ := strings.Cut(rest, " ")
		content = strings.TrimSpace(content)
		if peer == "" || content == "" {
			return Input{}, fmt.Errorf("%w: /private <user> <message>", ErrUsage)
		}
		return Input{Kind: InputPrivate, Peer: strings.TrimPrefix(peer, "@"), Content: content}, nil
	case "/open", "/dm":
		if rest == "" {
			return Input{}, fmt.Errorf("%w: %s <user>", ErrUsage, name)
		}
		return Input{Kind: InputOpen, Peer: strings.TrimPrefix(rest, "@")}, nil
	case "/public":
		return Input{Kind: InputPublic}, nil
	case "/close":
		return Input{Kind: InputClose, Peer: strings.TrimPrefix(rest, "@")}, nil
	case "/list", "/who":
		return Input{Kind: InputList}, nil
	case "/channels":
		return Input{Kind: InputChannels}, nil
	case "/history":
		in := Input{Kind: InputHistory}
		if rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil || n <= 0 {
				return Input{}, fmt.Errorf("%w: /history [n]", ErrUsage)
			}
			in.Limit = n
		}
		return in, nil
	case "/help", "/?":
		return Input{Kind: InputHelp}, nil
	case "/quit", "/exit":
		return Input{Kind: InputQuit}, nil
	default:
		return Input{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

// Execute carries out in against the session. It reports quit == true for /quit.
func (a *App) Execute(ctx context.Context, in Input) (quit bool, err error) {
	s := a.session
	switch in.Kind {
	case InputSend:
		_, err = s.Send(ctx, in.Content)
		return false, err

	case InputPrivate:
		if err := s.Activate(ctx, core.Private(in.Peer)); err != nil {
			return false, err
		}
		_, err = s.Send(ctx, in.Content)
		return false, err

	case InputOpen:
		if err := s.Activate(ctx, core.Private(in.Peer)); err != nil {
			return false, err
		}
		a.console.Notice(fmt.Sprintf("now talking in @%s", strings.TrimSpace(in.Peer)))
		return false, nil

	case InputPublic:
		if err := s.Activate(ctx, core.Public); err != nil {
			return false, err
		}
		a.console.Notice("now talking in public")
		return false, nil

	case InputClose:
		ch := core.Private(in.Peer)
		if in.Peer == "" {
			snap, err := s.Snapshot(ctx)
			if err != nil {
				return false, err
			}
			ch = snap.Active
		}
		return false, s.CloseChannel(ctx, ch)

	case InputList:
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		a.console.Presence(snap.Online)
		return false, nil

	case InputChannels:
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		a.console.Channels(snap.Channels)
		return false, nil

	case InputHistory:
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		limit := in.Limit
		if limit <= 0 {
			limit = a.cfg.HistoryLimit
		}
		entries, err := a.transcript.History(ctx, snap.Active, limit)
		if err != nil {
			return false, err
		}
		a.console.History(snap.Active, entries)
		return false, nil

	case InputHelp:
		a.console.Notice(helpText)
		return false, nil

	case InputQuit:
		return true, nil

	default:
		return false, fmt.Errorf("%w: kind %d", ErrUnknownCommand, in.Kind)
	}
}
