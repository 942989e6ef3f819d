// Package sink renders routed chat entries.
package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

var (
	colorPrimary = lipgloss.Color("#7B68EE")
	colorMuted   = lipgloss.Color("#636363")
	colorGreen   = lipgloss.Color("#9ECE6A")
	colorRed     = lipgloss.Color("#F7768E")
	colorPrivate = lipgloss.Color("#E0AF68")
)

type styles struct {
	channel  lipgloss.Style
	private  lipgloss.Style
	author   lipgloss.Style
	own      lipgloss.Style
	system   lipgloss.Style
	unknown  lipgloss.Style
	badge    lipgloss.Style
	clock    lipgloss.Style
	selected lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		channel:  r.NewStyle().Foreground(colorMuted),
		private:  r.NewStyle().Foreground(colorPrivate).Bold(true),
		author:   r.NewStyle().Foreground(colorPrimary).Bold(true),
		own:      r.NewStyle().Foreground(colorGreen).Bold(true),
		system:   r.NewStyle().Foreground(colorMuted).Italic(true),
		unknown:  r.NewStyle().Foreground(colorRed),
		badge:    r.NewStyle().Foreground(colorRed).Bold(true),
		clock:    r.NewStyle().Foreground(colorMuted),
		selected: r.NewStyle().Foreground(colorGreen).Bold(true),
	}
}

// Console writes one line per entry to an io.Writer.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	style      styles
	timeFormat string
}

// NewConsole builds a console renderer. Colors follow out's terminal capabilities.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:        out,
		style:      newStyles(lipgloss.NewRenderer(out)),
		timeFormat: "15:04",
	}
}

// Open implements core.Sink.
func (c *Console) Open(ch core.Channel) core.Log {
	return consoleLog{console: c, ch: ch}
}

// Release implements core.Sink.
func (c *Console) Release(ch core.Channel) {
	c.Notice(fmt.Sprintf("closed %s", ch))
}

// Notice prints an informational line.
func (c *Console) Notice(msg string) {
	c.println(c.style.system.Render("* " + msg))
}

// Presence prints the online list.
func (c *Console) Presence(online []string) {
	if len(online) == 0 {
		c.Notice("nobody else is online")
		return
	}
	c.Notice("online: " + strings.Join(online, ", "))
}

// Channels prints open channels with their unread counts, marking the active one.
func (c *Console) Channels(infos []core.ChannelInfo) {
	var b strings.Builder
	for _, info := range infos {
		name := info.Channel.String()
		if info.Active {
			name = c.style.selected.Render("> " + name)
		} else {
			name = "  " + name
		}
		b.WriteString(name)
		if info.Unread > 0 {
			b.WriteString(" " + c.style.badge.Render(fmt.Sprintf("(%d unread)", info.Unread)))
		}
		b.WriteString("\n")
	}
	c.write(b.String())
}

// History prints stored entries of ch, oldest first.
func (c *Console) History(ch core.Channel, entries []core.Entry) {
	if len(entries) == 0 {
		c.Notice(fmt.Sprintf("no history for %s", ch))
		return
	}
	var b strings.Builder
	for _, e := range entries {
		e.Unread = 0
		b.WriteString(c.format(ch, e))
		b.WriteString("\n")
	}
	c.write(b.String())
}

func (c *Console) format(ch core.Channel, e core.Entry) string {
	label := c.style.channel.Render("[" + ch.String() + "]")
	if !ch.IsPublic() {
		label = c.style.private.Render("[" + ch.String() + "]")
	}
	parts := []string{c.style.clock.Render(e.At.Format(c.timeFormat)), label}

	switch e.Kind {
	case core.EntrySystem:
		parts = append(parts, c.style.system.Render("* "+e.Content))
	case core.EntryUnknown:
		parts = append(parts, c.style.unknown.Render("? "+e.From+": "+e.Content))
	default:
		author := c.style.author
		if e.Self {
			author = c.style.own
		}
		from := e.From
		if e.Kind == core.EntryPrivate && e.Self {
			from = e.From + " -> " + e.To
		}
		parts = append(parts, author.Render(from+":")+" "+e.Content)
	}

	if e.Unread > 0 {
		parts = append(parts, c.style.badge.Render(fmt.Sprintf("(%d unread)", e.Unread)))
	}
	return strings.Join(parts, " ")
}

func (c *Console) println(line string) {
	c.write(line + "\n")
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

type consoleLog struct {
	console *Console
	ch      core.Channel
}

func (l consoleLog) Append(e core.Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	l.console.println(l.console.format(l.ch, e))
}
