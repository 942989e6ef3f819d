package app

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func memoryConfig(identity string) config.Config {
	cfg := config.Default()
	cfg.Identity = identity
	cfg.Transport = transport.KindMemory
	return cfg
}

func startApp(t *testing.T, cfg config.Config) (*App, *syncBuffer, chan error) {
	t.Helper()
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a, err := New(ctx, cfg, out, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	return a, out, done
}

func waitFor(t *testing.T, out *syncBuffer, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte(text))
	}, 2*time.Second, 5*time.Millisecond, "output never contained %q:\n%s", text, out.String())
}

func TestApp_MemoryConversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	a, out, _ := startApp(t, memoryConfig("alice"))

	waitFor(t, out, "memory transport")

	// Public chat comes back through the relay
	quit, err := a.Execute(ctx, Input{Kind: InputSend, Content: "hello room"})
	req.NoError(err)
	req.False(quit)
	waitFor(t, out, "hello room")

	// A private message opens and activates the channel
	_, err = a.Execute(ctx, Input{Kind: InputPrivate, Peer: "bob", Content: "psst"})
	req.NoError(err)
	waitFor(t, out, "[@bob]")
	waitFor(t, out, "alice -> bob:")

	snap, err := a.Session().Snapshot(ctx)
	req.NoError(err)
	req.Equal(core.Private("bob"), snap.Active)

	_, err = a.Execute(ctx, Input{Kind: InputChannels})
	req.NoError(err)
	waitFor(t, out, "> @bob")

	_, err = a.Execute(ctx, Input{Kind: InputHistory, Limit: 5})
	req.NoError(err)
	req.Eventually(func() bool {
		return bytes.Count([]byte(out.String()), []byte("psst")) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	// Closing without a name closes the active channel
	_, err = a.Execute(ctx, Input{Kind: InputClose})
	req.NoError(err)
	waitFor(t, out, "closed @bob")
	snap, err = a.Session().Snapshot(ctx)
	req.NoError(err)
	req.Equal(core.Public, snap.Active)

	_, err = a.Execute(ctx, Input{Kind: InputClose})
	req.ErrorIs(err, core.ErrClosePublic)

	_, err = a.Execute(ctx, Input{Kind: InputList})
	req.NoError(err)
	waitFor(t, out, "nobody else is online")

	quit, err = a.Execute(ctx, Input{Kind: InputQuit})
	req.NoError(err)
	req.True(quit)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	a, err := New(ctx, memoryConfig("alice"), out, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig("")
	_, err := New(context.Background(), cfg, &syncBuffer{}, nil)
	require.Error(t, err)

	cfg = memoryConfig("alice")
	cfg.Transport = "smoke-signals"
	_, err = New(context.Background(), cfg, &syncBuffer{}, nil)
	require.Error(t, err)
}

func TestNew_StompConnectFailure(t *testing.T) {
	cfg := memoryConfig("alice")
	cfg.Transport = transport.KindSTOMP
	cfg.ServerURL = "ws://127.0.0.1:1/ws/websocket"
	cfg.DialTimeout = time.Second

	_, err := New(context.Background(), cfg, &syncBuffer{}, nil)
	var ce *transport.ConnectError
	require.ErrorAs(t, err, &ce)
}

func TestResolveTopics(t *testing.T) {
	defaults := transport.Topics{Public: "p", Private: "u.{identity}", Login: "l", Chat: "c", PrivateChat: "pc"}

	got := resolveTopics(config.Topics{Public: "lobby", PrivateChat: "dm"}, defaults)

	require.Equal(t, transport.Topics{Public: "lobby", Private: "u.{identity}", Login: "l", Chat: "c", PrivateChat: "dm"}, got)
}
