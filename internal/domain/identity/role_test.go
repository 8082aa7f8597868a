package identity

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Supervisor ")
	require.NoError(t, err)
	assert.Equal(t, RoleSupervisor, role)

	_, err = ParseRole("manager")
	require.Error(t, err)
}

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		role       Role
		privileged bool
		reviewer   bool
	}{
		{RoleOwner, true, true},
		{RoleAdmin, true, true},
		{RoleSupervisor, false, true},
		{RoleCashier, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.privileged, tt.role.IsPrivileged())
			assert.Equal(t, tt.reviewer, tt.role.CanReviewReturns())
		})
	}
}

func TestNewActor(t *testing.T) {
	t.Run("valid actor", func(t *testing.T) {
		id := uuid.New()
		actor, err := NewActor(id, RoleCashier)
		require.NoError(t, err)
		assert.Equal(t, id, actor.UserID)
	})

	t.Run("anonymous user is unauthorized", func(t *testing.T) {
		_, err := NewActor(uuid.Nil, RoleAdmin)
		assert.True(t, errors.Is(err, shared.ErrUnauthorized))
	})

	t.Run("unknown role is forbidden", func(t *testing.T) {
		_, err := NewActor(uuid.New(), Role("guest"))
		assert.Equal(t, shared.KindAuthorization, shared.KindOf(err))
	})
}
