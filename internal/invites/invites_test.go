package invites

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteRoundTrip(t *testing.T) {
	v := NewValidator("invite-secret-for-tests")

	token, err := v.Create("g1", "u1", "Alice", time.Hour)
	require.NoError(t, err)

	invite, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "g1", invite.GroupID)
	assert.Equal(t, "u1", invite.InviterID)
	assert.Equal(t, "Alice", invite.InviterName)
	assert.True(t, invite.ExpiresAt.After(time.Now()))
}

func TestInviteExpired(t *testing.T) {
	v := NewValidator("invite-secret-for-tests")

	token, err := v.Create("g1", "u1", "Alice", -time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestInviteMalformed(t *testing.T) {
	v := NewValidator("invite-secret-for-tests")

	_, err := v.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInviteMalformed)

	// A token signed with a different secret is just as invalid.
	other := NewValidator("some-other-secret")
	token, err := other.Create("g1", "u1", "Alice", time.Hour)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInviteMalformed)
}
