package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAuthorizer(t *testing.T) {
	a := NewRoleAuthorizer()

	admin := Actor{ID: "u1", Role: RoleAdmin}
	driver := Actor{ID: "d1", Role: RoleDriver}
	hospital := Actor{ID: "h1", Role: RoleHospital}

	assert.True(t, a.Allow(admin, ActionCancelRequest))
	assert.True(t, a.Allow(admin, ActionReassignRequest))
	assert.True(t, a.Allow(driver, ActionCompleteRequest))
	assert.False(t, a.Allow(driver, ActionCancelRequest))
	assert.True(t, a.Allow(hospital, ActionUpdateHospital))
	assert.False(t, a.Allow(hospital, ActionReassignRequest))
	assert.False(t, a.Allow(Actor{Role: "unknown"}, ActionCancelRequest))
}
