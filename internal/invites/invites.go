// Package invites creates and validates invite-link tokens. An invite
// token is a signed claim that one user asked another to join a group; the
// delivery mechanism (push, share sheet, SMS) is somebody else's problem.
package invites

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInviteExpired   = errors.New("invite link has expired")
	ErrInviteMalformed = errors.New("invite link is not valid")
)

// Invite is the structured result of validating an invite-link token.
type Invite struct {
	GroupID     string
	InviterID   string
	InviterName string
	ExpiresAt   time.Time
}

type inviteClaims struct {
	GroupID     string `json:"group_id"`
	InviterName string `json:"inviter_name"`
	jwt.RegisteredClaims
}

// Validator signs and checks invite tokens with one shared secret.
type Validator struct {
	secret []byte
}

// NewValidator creates a validator with the given signing secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Create issues a new invite token for a group.
func (v *Validator) Create(groupID, inviterID, inviterName string, ttl time.Duration) (string, error) {
	claims := &inviteClaims{
		GroupID:     groupID,
		InviterName: inviterName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   inviterID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign invite: %w", err)
	}
	return token, nil
}

// Validate checks an invite token and returns its structured contents.
// Expired invites and garbage both come back as sentinel errors, never a
// panic or a raw library error.
func (v *Validator) Validate(token string) (Invite, error) {
	parsed, err := jwt.ParseWithClaims(token, &inviteClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Invite{}, ErrInviteExpired
		}
		return Invite{}, fmt.Errorf("%w: %v", ErrInviteMalformed, err)
	}

	claims, ok := parsed.Claims.(*inviteClaims)
	if !ok || !parsed.Valid {
		return Invite{}, ErrInviteMalformed
	}

	return Invite{
		GroupID:     claims.GroupID,
		InviterID:   claims.Subject,
		InviterName: claims.InviterName,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
