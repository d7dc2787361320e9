package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay-service/internal/rooms"
)

const (
	idA = "0b8f4a92-5a31-4e2a-9c1d-3d6f1a000001"
	idB = "7c3d2e10-9b44-4f5b-8a6e-3d6f1a000002"
	idG = "e5a1c860-17de-4b0a-bb1c-3d6f1a000003"
)

func TestMessagePayloadDirectXORGroup(t *testing.T) {
	gate := NewGate()
	room := rooms.Direct(idA, idB)

	valid := MessagePayload{SenderID: idA, ReceiverID: idB, Content: "hi", Type: "text", RoomID: room}
	require.NoError(t, gate.Check(valid))

	group := MessagePayload{SenderID: idA, GroupID: idG, Content: "hi", Type: "text", RoomID: rooms.Group(idG)}
	require.NoError(t, gate.Check(group))

	both := valid
	both.GroupID = idG
	assert.Error(t, gate.Check(both), "receiver and group together must be rejected")

	neither := valid
	neither.ReceiverID = ""
	assert.Error(t, gate.Check(neither), "a target is required")
}

func TestMessagePayloadContentAndType(t *testing.T) {
	gate := NewGate()
	room := rooms.Direct(idA, idB)

	empty := MessagePayload{SenderID: idA, ReceiverID: idB, Content: "", Type: "text", RoomID: room}
	assert.Error(t, gate.Check(empty))

	badType := MessagePayload{SenderID: idA, ReceiverID: idB, Content: "x", Type: "audio", RoomID: room}
	assert.Error(t, gate.Check(badType))

	for _, typ := range []string{"text", "image", "video"} {
		msg := MessagePayload{SenderID: idA, ReceiverID: idB, Content: "x", Type: typ, RoomID: room}
		assert.NoError(t, gate.Check(msg), typ)
	}
}

func TestRegisterPayloadRequiresUUID(t *testing.T) {
	gate := NewGate()

	require.NoError(t, gate.Check(RegisterPayload{UserID: idA}))
	assert.Error(t, gate.Check(RegisterPayload{UserID: "u1"}))
	assert.Error(t, gate.Check(RegisterPayload{}))
}

func TestRoomKeys(t *testing.T) {
	gate := NewGate()

	require.NoError(t, gate.CheckRoomID(rooms.Direct(idA, idB)))
	require.NoError(t, gate.CheckRoomID(rooms.Group(idG)))

	// Unsorted direct keys were computed wrong somewhere.
	assert.Error(t, gate.CheckRoomID(idB+rooms.Separator+idA))
	assert.Error(t, gate.CheckRoomID("not-a-room"))
	assert.Error(t, gate.CheckRoomID(strings.Repeat("a", rooms.MaxKeyLen+1)))
	assert.Error(t, gate.CheckRoomID(""))
}

func TestGroupUpdatePayload(t *testing.T) {
	gate := NewGate()

	ok := GroupUpdatePayload{GroupID: idG, Name: "team", Members: []string{idA, idB}}
	require.NoError(t, gate.Check(ok))

	assert.Error(t, gate.Check(GroupUpdatePayload{GroupID: idG, Members: []string{idA}}), "name required")
	assert.Error(t, gate.Check(GroupUpdatePayload{GroupID: idG, Name: "team"}), "member list required")
	assert.Error(t, gate.Check(GroupUpdatePayload{GroupID: idG, Name: "team", Members: []string{"nope"}}))
}
