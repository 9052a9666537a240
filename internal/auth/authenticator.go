package auth

import (
	"context"

	"github.com/paybackapp/payback/internal/models"
)

// Authenticator is the interface every identity provider implements.
// Email/password is the concrete implementation shipped here; phone and
// third-party identity providers are opaque token-issuing collaborators
// that plug in behind the same interface.
type Authenticator interface {
	// Register creates a new user account with the given email and
	// credential. The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user
	// if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the
	// implementation's requirements before any storage round-trip.
	ValidateCredential(credential string) error
}
