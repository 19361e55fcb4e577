// Package session implements the stateful login mechanism: server-held
// records with a fixed expiry, redeemable by an opaque unguessable id.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campanile/api/internal/crypto"
	"campanile/api/internal/directory"
	"campanile/api/internal/identity"
	"campanile/api/internal/model"
)

type Manager struct {
	accounts directory.Store
	sessions Store
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(accounts directory.Store, sessions Store, ttl time.Duration) *Manager {
	return &Manager{
		accounts: accounts,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
	}
}

var _ identity.Resolver = (*Manager)(nil)

// Create verifies the credentials and persists a new session whose
// expiry is fixed at creation time plus the configured duration. The
// returned session carries the plaintext id; only its hash is stored.
func (m *Manager) Create(ctx context.Context, email, password string) (model.Session, error) {
	account, err := m.accounts.FindByEmail(ctx, email)
	if err != nil {
		return model.Session{}, err
	}
	if err := crypto.CheckPassword(account.PasswordHash, password); err != nil {
		return model.Session{}, identity.ErrInvalidCredentials
	}

	id, err := crypto.NewSessionID()
	if err != nil {
		return model.Session{}, fmt.Errorf("generate session id: %w", err)
	}
	now := m.now().UTC()
	record := Record{
		Email:     account.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.sessions.Create(ctx, crypto.HashSessionID(id), record); err != nil {
		return model.Session{}, fmt.Errorf("persist session: %w", err)
	}

	return model.Session{
		ID:        id,
		Email:     account.Email,
		Type:      account.Type,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// Redeem resolves a presented session id to a live session. Unknown,
// expired, and account-less sessions are indistinguishable to the
// caller; all come back as identity.ErrNotAuthenticated so stale ids
// cannot be enumerated.
func (m *Manager) Redeem(ctx context.Context, id string) (model.Session, error) {
	record, err := m.sessions.Get(ctx, crypto.HashSessionID(id))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return model.Session{}, identity.ErrNotAuthenticated
		}
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}

	session := model.Session{
		ID:        id,
		Email:     record.Email,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}
	if session.HasExpired(m.now().UTC()) {
		return model.Session{}, identity.ErrNotAuthenticated
	}

	// Re-read the account on every redemption so edits and deletions
	// take effect on the very next request.
	account, err := m.accounts.FindByEmail(ctx, record.Email)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return model.Session{}, identity.ErrNotAuthenticated
		}
		return model.Session{}, err
	}
	session.Email = account.Email
	session.Type = account.Type
	return session, nil
}

// Revoke deletes a session record, forcing logout.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	return m.sessions.Delete(ctx, crypto.HashSessionID(id))
}

// Resolve implements identity.Resolver over session ids.
func (m *Manager) Resolve(ctx context.Context, credential string) (identity.Identity, error) {
	session, err := m.Redeem(ctx, credential)
	if err != nil {
		return identity.Identity{}, err
	}
	return identity.Identity{Type: session.Type, Email: session.Email}, nil
}
