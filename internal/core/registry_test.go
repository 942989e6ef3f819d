package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_StartsWithActivePublic(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)

	req.Equal(Public, reg.CurrentTarget())
	req.Equal(1, reg.Len())

	st, ok := reg.Lookup(Public)
	req.True(ok)
	req.True(st.Visible)
	req.Zero(st.Unread)
}

func TestRegistry_Resolve_IsIdempotent(t *testing.T) {
	req := require.New(t)
	sink := newRecordingSink()
	reg := NewRegistry(sink)

	first, err := reg.Resolve(Private("bob"))
	req.NoError(err)
	for i := 0; i < 10; i++ {
		again, err := reg.Resolve(Private("bob"))
		req.NoError(err)
		req.Same(first, again)
	}

	// Surrounding whitespace names the same peer.
	padded, err := reg.Resolve(Private("  bob "))
	req.NoError(err)
	req.Same(first, padded)

	req.Equal(2, reg.Len())
	req.Equal([]Channel{Public, Private("bob")}, sink.opened)
}

func TestRegistry_Resolve_RejectsEmptyPeer(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)

	for _, peer := range []string{"", "   "} {
		_, err := reg.Resolve(Private(peer))
		req.ErrorIs(err, ErrEmptyPeer)
		req.ErrorIs(err, ErrIllegalOperation)
		req.Equal(ErrCodeEmptyPeer, ErrorCode(err))
	}
	req.Equal(1, reg.Len())
}

func TestRegistry_Activate_SwitchesVisibilityAndClearsUnread(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)

	// Given bob's channel has unread entries
	bob, err := reg.Resolve(Private("bob"))
	req.NoError(err)
	reg.markUnread(bob)
	reg.markUnread(bob)
	req.Equal(2, bob.Unread)

	// When it is activated
	req.NoError(reg.Activate(Private("bob")))

	// Then it is the only visible channel and its counter is reset
	req.Equal(Private("bob"), reg.CurrentTarget())
	req.Zero(bob.Unread)
	req.True(bob.Visible)
	pub, _ := reg.Lookup(Public)
	req.False(pub.Visible)

	visible := 0
	for _, info := range reg.Channels() {
		if info.Active {
			visible++
		}
	}
	req.Equal(1, visible)
}

func TestRegistry_Activate_CreatesMissingChannel(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)

	req.NoError(reg.Activate(Private("carol")))

	_, ok := reg.Lookup(Private("carol"))
	req.True(ok)
	req.Equal(Private("carol"), reg.CurrentTarget())
}

func TestRegistry_Activate_EmptyPeerLeavesStateUntouched(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)
	req.NoError(reg.Activate(Private("bob")))

	err := reg.Activate(Private(""))
	req.ErrorIs(err, ErrEmptyPeer)
	req.Equal(Private("bob"), reg.CurrentTarget())
	req.Equal(2, reg.Len())
}

func TestRegistry_Close_ActivePrivateFallsBackToPublic(t *testing.T) {
	req := require.New(t)
	sink := newRecordingSink()
	reg := NewRegistry(sink)

	req.NoError(reg.Activate(Private("bob")))
	req.NoError(reg.Close(Private("bob")))

	req.Equal(Public, reg.CurrentTarget())
	_, ok := reg.Lookup(Private("bob"))
	req.False(ok)
	pub, _ := reg.Lookup(Public)
	req.True(pub.Visible)
	req.Equal([]Channel{Private("bob")}, sink.released)
}

func TestRegistry_Close_InactivePrivateKeepsTarget(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)

	req.NoError(reg.Activate(Private("bob")))
	_, err := reg.Resolve(Private("carol"))
	req.NoError(err)

	req.NoError(reg.Close(Private("carol")))
	req.Equal(Private("bob"), reg.CurrentTarget())
	req.Equal([]ChannelInfo{
		{Channel: Public},
		{Channel: Private("bob"), Active: true},
	}, reg.Channels())
}

func TestRegistry_Close_RejectsPublicAndUnknown(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(nil)

	err := reg.Close(Public)
	req.ErrorIs(err, ErrClosePublic)
	req.True(errors.Is(err, ErrIllegalOperation))

	err = reg.Close(Private("ghost"))
	req.ErrorIs(err, ErrChannelNotFound)
	req.Equal(ErrCodeChannelNotFound, ErrorCode(err))

	req.Equal(Public, reg.CurrentTarget())
	req.Equal(1, reg.Len())
}

func TestRegistry_ReopenAfterClose(t *testing.T) {
	req := require.New(t)
	sink := newRecordingSink()
	reg := NewRegistry(sink)

	req.NoError(reg.Activate(Private("bob")))
	req.NoError(reg.Close(Private("bob")))
	req.NoError(reg.Activate(Private("bob")))

	req.Equal(Private("bob"), reg.CurrentTarget())
	req.Equal([]Channel{Public, Private("bob"), Private("bob")}, sink.opened)
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
	}{
		{"", Public},
		{"public", Public},
		{"PUBLIC", Public},
		{"bob", Private("bob")},
		{"@bob", Private("bob")},
		{" carol ", Private("carol")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ParseChannel(tt.in))
		})
	}
}

func TestParseEntryKind(t *testing.T) {
	for _, k := range []EntryKind{EntryChat, EntryPrivate, EntrySystem, EntryUnknown} {
		require.Equal(t, k, ParseEntryKind(k.String()))
	}
	require.Equal(t, EntryUnknown, ParseEntryKind("bogus"))
}
