// Package identity wraps the credential backend. It authenticates users and
// provisions accounts; it knows nothing about roles or tenants.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrWeakPassword       = errors.New("password too weak")
)

const MinPasswordLength = 8

type Identity struct {
	ID    string
	Email string
	Name  string
}

// Provider is the identity-provider boundary. CreateAccount runs with the
// provider's own service credential, so provisioning an account never
// touches the caller's session.
type Provider interface {
	Authenticate(ctx context.Context, email, password string) (Identity, error)
	CreateAccount(ctx context.Context, email, password, name string) (Identity, error)
	LookupByEmail(ctx context.Context, email string) (Identity, error)
	// SetPassword replaces the password of an existing account.
	SetPassword(ctx context.Context, id, password string) error
	DeleteAccount(ctx context.Context, id string) error
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func CheckPassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
