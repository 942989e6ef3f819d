package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

type feeds struct {
	conn    transport.Conn
	public  <-chan []byte
	private <-chan []byte
}

func connect(t *testing.T, r *Relay, identity string) feeds {
	t.Helper()
	ctx := context.Background()

	c, err := r.Connect(ctx, identity)
	require.NoError(t, err)
	topics := DefaultTopics.Expand(identity)

	pub, err := c.Subscribe(ctx, topics.Public)
	require.NoError(t, err)
	priv, err := c.Subscribe(ctx, topics.Private)
	require.NoError(t, err)

	login, err := proto.EncodeLogin(identity)
	require.NoError(t, err)
	require.NoError(t, c.Publish(ctx, topics.Login, login))

	return feeds{conn: c, public: pub, private: priv}
}

func mustDecode(t *testing.T, ch <-chan []byte) core.InboundEvent {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "feed closed")
		ev, err := proto.Decode(data)
		require.NoError(t, err)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no payload received")
		return core.InboundEvent{}
	}
}

func drain(ch <-chan []byte) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func TestRelay_LoginSendsRosterAndJoin(t *testing.T) {
	req := require.New(t)
	r := NewRelay(DefaultTopics, 16, nil)

	alice := connect(t, r, "alice")

	// Private roster for the newcomer
	ev := mustDecode(t, alice.private)
	req.Equal(core.EventRoster, ev.Kind)
	req.Equal([]string{"alice"}, ev.Roster)

	// Broadcast roster then join
	req.Equal(core.EventRoster, mustDecode(t, alice.public).Kind)
	join := mustDecode(t, alice.public)
	req.Equal(core.EventJoin, join.Kind)
	req.Equal("alice", join.From)

	bob := connect(t, r, "bob")
	drain(bob.private)
	roster := mustDecode(t, alice.public)
	req.Equal([]string{"alice", "bob"}, roster.Roster)
	req.Equal([]string{"alice", "bob"}, r.Online())
}

func TestRelay_PrivateChatReachesRecipientAndSender(t *testing.T) {
	req := require.New(t)
	r := NewRelay(DefaultTopics, 16, nil)
	alice := connect(t, r, "alice")
	bob := connect(t, r, "bob")
	drain(alice.private)
	drain(bob.private)

	data, err := proto.EncodeIntent("alice", core.Intent{Kind: core.IntentPrivateChat, Content: "psst", Target: core.Private("bob")})
	req.NoError(err)
	req.NoError(alice.conn.Publish(context.Background(), DefaultTopics.PrivateChat, data))

	want := core.InboundEvent{Kind: core.EventPrivateChat, From: "alice", To: "bob", Content: "psst"}
	req.Equal(want, mustDecode(t, bob.private))
	req.Equal(want, mustDecode(t, alice.private))
}

func TestRelay_ChatIsBroadcast(t *testing.T) {
	req := require.New(t)
	r := NewRelay(DefaultTopics, 16, nil)
	alice := connect(t, r, "alice")
	bob := connect(t, r, "bob")
	drain(alice.public)
	drain(bob.public)

	data, err := proto.EncodeIntent("bob", core.Intent{Kind: core.IntentChat, Content: "hi all", Target: core.Public})
	req.NoError(err)
	req.NoError(bob.conn.Publish(context.Background(), DefaultTopics.Chat, data))

	for _, f := range []feeds{alice, bob} {
		ev := mustDecode(t, f.public)
		req.Equal(core.EventChat, ev.Kind)
		req.Equal("hi all", ev.Content)
	}
}

func TestRelay_CloseUpdatesRosterAndClosesFeeds(t *testing.T) {
	req := require.New(t)
	r := NewRelay(DefaultTopics, 16, nil)
	alice := connect(t, r, "alice")
	bob := connect(t, r, "bob")
	drain(alice.public)
	drain(bob.public)

	req.NoError(bob.conn.Close())

	roster := mustDecode(t, alice.public)
	req.Equal([]string{"alice"}, roster.Roster)

	_, ok := <-bob.public
	req.False(ok)
	req.ErrorIs(bob.conn.Publish(context.Background(), DefaultTopics.Chat, []byte(`{}`)), transport.ErrClosed)
}

func TestRelay_RejectsUnknownDestinationAndEmptyIdentity(t *testing.T) {
	req := require.New(t)
	r := NewRelay(DefaultTopics, 16, nil)

	_, err := r.Connect(context.Background(), " ")
	var ce *transport.ConnectError
	req.ErrorAs(err, &ce)

	alice := connect(t, r, "alice")
	err = alice.conn.Publish(context.Background(), "nowhere", []byte(`{}`))
	req.ErrorIs(err, ErrUnknownDestination)
}
