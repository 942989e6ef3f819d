package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport"
	"github.com/vovakirdan/wirechat-client/internal/transport/memory"
)

// memorySink records appended entries; tests read it while the session goroutine writes.
type memorySink struct {
	mu      sync.Mutex
	entries map[core.Channel][]core.Entry
}

func newMemorySink() *memorySink {
	return &memorySink{entries: make(map[core.Channel][]core.Entry)}
}

func (s *memorySink) Open(ch core.Channel) core.Log {
	return memoryLog{sink: s, ch: ch}
}

func (s *memorySink) Release(core.Channel) {}

func (s *memorySink) of(ch core.Channel) []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.entries[ch]...)
}

type memoryLog struct {
	sink *memorySink
	ch   core.Channel
}

func (l memoryLog) Append(entry core.Entry) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.entries[l.ch] = append(l.sink.entries[l.ch], entry)
}

// peer is a raw relay participant driven directly by a test.
type peer struct {
	identity string
	conn     transport.Conn
	public   <-chan []byte
	private  <-chan []byte
}

func joinPeer(t *testing.T, relay *memory.Relay, identity string) *peer {
	t.Helper()
	ctx := context.Background()
	conn, err := relay.Connect(ctx, identity)
	require.NoError(t, err)
	topics := memory.DefaultTopics.Expand(identity)
	pub, err := conn.Subscribe(ctx, topics.Public)
	require.NoError(t, err)
	priv, err := conn.Subscribe(ctx, topics.Private)
	require.NoError(t, err)
	login, err := proto.EncodeLogin(identity)
	require.NoError(t, err)
	require.NoError(t, conn.Publish(ctx, topics.Login, login))
	return &peer{identity: identity, conn: conn, public: pub, private: priv}
}

func (p *peer) sendPrivate(t *testing.T, to, content string) {
	t.Helper()
	data, err := proto.EncodeIntent(p.identity, core.Intent{Kind: core.IntentPrivateChat, Content: content, Target: core.Private(to)})
	require.NoError(t, err)
	require.NoError(t, p.conn.Publish(context.Background(), memory.DefaultTopics.PrivateChat, data))
}

func (p *peer) sendChat(t *testing.T, content string) {
	t.Helper()
	data, err := proto.EncodeIntent(p.identity, core.Intent{Kind: core.IntentChat, Content: content, Target: core.Public})
	require.NoError(t, err)
	require.NoError(t, p.conn.Publish(context.Background(), memory.DefaultTopics.Chat, data))
}

// nextCommand reads raw payloads from ch until one with the given command arrives from sender.
// An empty sender matches anyone.
func nextCommand(t *testing.T, ch <-chan []byte, command, sender string) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data, ok := <-ch:
			require.True(t, ok, "feed closed")
			var p proto.Payload
			if err := json.Unmarshal(data, &p); err == nil && p.Command == command && (sender == "" || p.From == sender) {
				return data
			}
		case <-deadline:
			t.Fatalf("no %s payload received", command)
			return nil
		}
	}
}

type running struct {
	*Session
	cancel context.CancelFunc
	errCh  chan error
}

// openRunning opens a session on relay and starts its loop.
func openRunning(t *testing.T, relay *memory.Relay, identity string, sink core.Sink) *running {
	t.Helper()
	s, err := Open(context.Background(), relay, Options{Identity: identity, Topics: memory.DefaultTopics}, sink, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{Session: s, cancel: cancel, errCh: make(chan error, 1)}
	go func() { r.errCh <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = s.Shutdown()
	})
	return r
}

// eventually polls the session until cond holds for a snapshot.
func eventually(t *testing.T, s *Session, cond func(Snapshot) bool, msg string) Snapshot {
	t.Helper()
	var last Snapshot
	require.Eventually(t, func() bool {
		snap, err := s.Snapshot(context.Background())
		if err != nil {
			return false
		}
		last = snap
		return cond(snap)
	}, 2*time.Second, 5*time.Millisecond, msg)
	return last
}
