package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for _, raw := range []string{"cancel", "approve", "reject", "reapply"} {
		action, err := ParseAction(raw)
		require.NoError(t, err)
		assert.Equal(t, Action(raw), action)
	}

	_, err := ParseAction("promote")
	assert.Error(t, err)

	_, err = ParseAction("")
	assert.Error(t, err)
}

func TestActionTargetStatus(t *testing.T) {
	assert.Equal(t, StatusCancelled, ActionCancel.TargetStatus())
	assert.Equal(t, StatusApproved, ActionApprove.TargetStatus())
	assert.Equal(t, StatusRejected, ActionReject.TargetStatus())
	assert.Equal(t, StatusPending, ActionReapply.TargetStatus())
}

func TestActionRequiredRole(t *testing.T) {
	assert.Equal(t, RoleVolunteer, ActionCancel.RequiredRole())
	assert.Equal(t, RoleVolunteer, ActionReapply.RequiredRole())
	assert.Equal(t, RoleOrganization, ActionApprove.RequiredRole())
	assert.Equal(t, RoleOrganization, ActionReject.RequiredRole())
}
