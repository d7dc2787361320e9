package relay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"relay-service/internal/models"
)

func TestUpdateGroupReachesRosterAndPayloadMembers(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)
	bob := f.register(t, idBob)
	carol := f.register(t, idCarol)

	// Carol was just removed: she is in the stored roster but not in
	// the incoming member list, and must still hear about the change.
	f.groups.On("ActiveMemberIDs", mock.Anything, idGroup).
		Return([]string{idAlice, idCarol}, nil)

	payload, _ := json.Marshal(map[string]any{
		"group_id": idGroup,
		"name":     "renamed",
		"members":  []string{idAlice, idBob},
	})
	f.service.UpdateGroup(context.Background(), &fakeConn{id: "admin"}, payload)

	for _, conn := range []*fakeConn{alice, bob, carol} {
		events := conn.payloads(t, models.EventGroupUpdated)
		require.Len(t, events, 1, conn.ID())
		var update struct {
			GroupID string   `json:"group_id"`
			Name    string   `json:"name"`
			Members []string `json:"members"`
		}
		require.NoError(t, json.Unmarshal(events[0], &update))
		assert.Equal(t, idGroup, update.GroupID)
		assert.Equal(t, "renamed", update.Name)
		assert.Equal(t, []string{idAlice, idBob}, update.Members)
	}
}

func TestUpdateGroupSkipsUnregisteredMembers(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)

	f.groups.On("ActiveMemberIDs", mock.Anything, idGroup).
		Return([]string{idAlice, idBob}, nil)

	payload, _ := json.Marshal(map[string]any{
		"group_id": idGroup,
		"name":     "team",
		"members":  []string{idAlice, idBob},
	})
	f.service.UpdateGroup(context.Background(), &fakeConn{id: "admin"}, payload)

	assert.Equal(t, 1, alice.countEvent(t, models.EventGroupUpdated))
}

func TestUpdateUserReachesUserAndContacts(t *testing.T) {
	f := newFixture()
	bob := f.register(t, idBob)
	carol := f.register(t, idCarol)
	alice := f.register(t, idAlice, idBob)

	payload, _ := json.Marshal(map[string]string{
		"user_id":   idAlice,
		"full_name": "Alice Renamed",
	})
	f.service.UpdateUser(context.Background(), alice, payload)

	for _, conn := range []*fakeConn{alice, bob} {
		events := conn.payloads(t, models.EventUserUpdated)
		require.Len(t, events, 1, conn.ID())
		var update struct {
			UserID   string `json:"user_id"`
			FullName string `json:"full_name"`
		}
		require.NoError(t, json.Unmarshal(events[0], &update))
		assert.Equal(t, idAlice, update.UserID)
		assert.Equal(t, "Alice Renamed", update.FullName)
	}

	// Carol is not a contact of Alice.
	assert.Zero(t, carol.countEvent(t, models.EventUserUpdated))
}

func TestUpdateUserInvalidPayloadIsDropped(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)
	before := len(alice.frames)

	f.service.UpdateUser(context.Background(), alice, json.RawMessage(`{"user_id":"bad"}`))

	assert.Len(t, alice.frames, before)
	f.users.AssertNotCalled(t, "ContactIDs", mock.Anything, "bad")
}
