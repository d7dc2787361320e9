package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id        string
	frames    [][]byte
	failWrite bool
	closed    bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	if f.failWrite {
		return errors.New("write failed")
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func (f *fakeConn) events(t *testing.T) []string {
	t.Helper()
	var names []string
	for _, frame := range f.frames {
		var env struct {
			Event string `json:"event"`
		}
		require.NoError(t, json.Unmarshal(frame, &env))
		names = append(names, env.Event)
	}
	return names
}

func TestHubJoinLeave(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{id: "c1"}

	hub.Join("room", conn)
	hub.Join("room", conn) // idempotent
	require.True(t, hub.InRoom("room", conn))

	hub.Leave("room", conn)
	hub.Leave("room", conn)
	require.False(t, hub.InRoom("room", conn))
	assert.Empty(t, hub.rooms, "empty rooms are pruned")
}

func TestHubBroadcastReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub()
	inside := &fakeConn{id: "c1"}
	other := &fakeConn{id: "c2"}
	hub.Join("room", inside)
	hub.Join("elsewhere", other)

	hub.Broadcast("room", "new_message", map[string]string{"content": "hi"})

	require.Len(t, inside.frames, 1)
	assert.Equal(t, []string{"new_message"}, inside.events(t))
	assert.Empty(t, other.frames)
}

func TestHubBroadcastEvictsFailedConnections(t *testing.T) {
	hub := NewHub()
	healthy := &fakeConn{id: "c1"}
	broken := &fakeConn{id: "c2", failWrite: true}
	hub.Join("room", healthy)
	hub.Join("room", broken)

	hub.Broadcast("room", "new_message", "x")

	assert.True(t, broken.closed)
	assert.False(t, hub.InRoom("room", broken))
	assert.True(t, hub.InRoom("room", healthy))
	assert.Len(t, healthy.frames, 1)
}

func TestHubDropRemovesFromAllRooms(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{id: "c1"}
	hub.Join("a", conn)
	hub.Join("b", conn)

	hub.Drop(conn)

	assert.False(t, hub.InRoom("a", conn))
	assert.False(t, hub.InRoom("b", conn))
}

func TestHubSend(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{id: "c1"}

	require.NoError(t, hub.Send(conn, "registered", "c1"))
	assert.Equal(t, []string{"registered"}, conn.events(t))

	broken := &fakeConn{id: "c2", failWrite: true}
	assert.Error(t, hub.Send(broken, "registered", "c2"))
	assert.True(t, broken.closed)
}
