package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by stores for unknown ids. The manager
// folds it into identity.ErrNotAuthenticated before it reaches callers.
var ErrSessionNotFound = errors.New("session not found")

// Record is the persisted shape of a session. Stores key records by the
// sha256 hash of the opaque id, never by the id itself.
type Record struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store is the session persistence port. Get returns records as stored,
// expired ones included: expiry is the manager's check, garbage
// collection is the store's problem.
type Store interface {
	Create(ctx context.Context, idHash string, record Record) error
	Get(ctx context.Context, idHash string) (Record, error)
	Delete(ctx context.Context, idHash string) error
}
