package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectKeyIsSymmetric(t *testing.T) {
	a := "0b8f4a92-1111-4e2a-9c1d-000000000001"
	b := "7c3d2e10-2222-4f5b-8a6e-000000000002"

	require.Equal(t, Direct(a, b), Direct(b, a))
	assert.Equal(t, a+Separator+b, Direct(b, a))
}

func TestGroupKeyIsGroupID(t *testing.T) {
	assert.Equal(t, "g1", Group("g1"))
}

func TestDirectParticipants(t *testing.T) {
	key := Direct("u1", "u2")
	a, b, ok := DirectParticipants(key)
	require.True(t, ok)
	assert.Equal(t, "u1", a)
	assert.Equal(t, "u2", b)

	_, _, ok = DirectParticipants("groupid")
	assert.False(t, ok)
}

func TestIsDirect(t *testing.T) {
	assert.True(t, IsDirect(Direct("u1", "u2")))
	assert.False(t, IsDirect(Group("g1")))
}
