package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLastRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	first := &fakeConn{id: "c1"}
	second := &fakeConn{id: "c2"}

	require.Nil(t, reg.Register("u1", first))

	superseded := reg.Register("u1", second)
	require.Equal(t, first, superseded)

	resolved, ok := reg.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, second, resolved)

	// The superseded handle is no longer resolvable back to the user.
	_, ok = reg.UserFor(first)
	assert.False(t, ok)
}

func TestRegistryReleaseByReverseLookup(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{id: "c1"}
	reg.Register("u1", conn)

	userID, ok := reg.Release(conn)
	require.True(t, ok)
	assert.Equal(t, "u1", userID)

	_, ok = reg.Resolve("u1")
	assert.False(t, ok)
}

func TestRegistryReleaseUnknownHandleIsNoop(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Release(&fakeConn{id: "ghost"})
	assert.False(t, ok)
}

func TestRegistryRebindSameConnDifferentUser(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{id: "c1"}
	reg.Register("u1", conn)
	reg.Register("u2", conn)

	// The old binding is gone, not just shadowed.
	_, ok := reg.Resolve("u1")
	require.False(t, ok)

	resolved, ok := reg.Resolve("u2")
	require.True(t, ok)
	assert.Equal(t, conn, resolved)

	userID, ok := reg.Release(conn)
	require.True(t, ok)
	assert.Equal(t, "u2", userID)

	_, ok = reg.Resolve("u1")
	assert.False(t, ok)
	_, ok = reg.Resolve("u2")
	assert.False(t, ok)
}

func TestRegistryReleaseSupersededHandleKeepsCurrent(t *testing.T) {
	reg := NewRegistry()
	first := &fakeConn{id: "c1"}
	second := &fakeConn{id: "c2"}
	reg.Register("u1", first)
	reg.Register("u1", second)

	// Releasing the stale handle must not unbind the live one.
	_, ok := reg.Release(first)
	require.False(t, ok)

	resolved, ok := reg.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, second, resolved)
}
