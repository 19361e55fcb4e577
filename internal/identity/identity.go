// Package identity holds the authenticated-identity value shared by
// both login mechanisms and the error taxonomy of the auth core.
package identity

import (
	"context"
	"errors"

	"campanile/api/internal/model"
)

var (
	// ErrAccountNotFound indicates no account exists for the email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated covers every redemption failure: unknown or
	// expired session, bad signature, deleted account. Callers must not
	// be able to tell these apart.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden indicates an authenticated identity lacks access.
	ErrForbidden = errors.New("forbidden")
	// ErrMalformedToken indicates a token that failed to decode or
	// verify. Normalized to ErrNotAuthenticated at the HTTP boundary.
	ErrMalformedToken = errors.New("malformed token")
)

// Identity is the value handed to every downstream handler once a
// session or token has been resolved.
type Identity struct {
	Type  model.AccountType
	Email string
}

// Resolver turns opaque credential material (a session id or a signed
// token) into an authenticated identity. Both managers implement it.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}

// FromAccount builds the identity view of a directory account.
func FromAccount(account model.Account) Identity {
	return Identity{Type: account.Type, Email: account.Email}
}
