package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybackapp/payback/internal/models"
)

type memoryUserStorage struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newMemoryUserStorage() *memoryUserStorage {
	return &memoryUserStorage{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (s *memoryUserStorage) CreateUser(_ context.Context, user *models.User) error {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *memoryUserStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.byEmail[email], nil
}

func (s *memoryUserStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return s.byID[id], nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemoryUserStorage())

	user, err := a.Register(ctx, "me@example.com", "Me", "long-enough-password")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "long-enough-password", user.PasswordHash)

	got, err := a.Authenticate(ctx, "me@example.com", "long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = a.Authenticate(ctx, "me@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsWeakPasswordAndDuplicates(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemoryUserStorage())

	_, err := a.Register(ctx, "me@example.com", "Me", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = a.Register(ctx, "me@example.com", "Me", "long-enough-password")
	require.NoError(t, err)

	_, err = a.Register(ctx, "me@example.com", "Me Again", "another-password")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestTokenManagerRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret-key-for-unit-tests", time.Hour)
	user := models.NewUser("me@example.com", "Me", "hash")

	token, err := m.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "me@example.com", claims.Email)
}

func TestTokenManagerRejectsBadTokens(t *testing.T) {
	m := NewTokenManager("test-secret-key-for-unit-tests", time.Hour)

	_, err := m.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("a-completely-different-secret", time.Hour)
	token, err := other.Generate(models.NewUser("me@example.com", "Me", "hash"))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManagerExpiry(t *testing.T) {
	m := NewTokenManager("test-secret-key-for-unit-tests", -time.Minute)
	token, err := m.Generate(models.NewUser("me@example.com", "Me", "hash"))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
