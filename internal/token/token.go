// Package token implements the stateless login mechanism: signed
// self-contained tokens with no server-side record. Revocation is only
// possible by rotating the signing secret, which kills every
// outstanding token at once.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campanile/api/internal/crypto"
	"campanile/api/internal/directory"
	"campanile/api/internal/identity"
	"campanile/api/internal/model"
)

type Claims struct {
	AccountType string `json:"account_type"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	accounts directory.Store
	secret   string
	issuer   string
	// ttl of zero issues tokens without an expiry claim.
	ttl time.Duration
	now func() time.Time
}

func NewManager(accounts directory.Store, secret, issuer string, ttl time.Duration) *Manager {
	return &Manager{
		accounts: accounts,
		secret:   secret,
		issuer:   issuer,
		ttl:      ttl,
		now:      time.Now,
	}
}

var _ identity.Resolver = (*Manager)(nil)

// Issue verifies the credentials and signs a token over the account
// variant and email. Fails exactly as session creation does on unknown
// accounts and bad passwords.
func (m *Manager) Issue(ctx context.Context, email, password string) (string, error) {
	account, err := m.accounts.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := crypto.CheckPassword(account.PasswordHash, password); err != nil {
		return "", identity.ErrInvalidCredentials
	}

	now := m.now().UTC()
	claims := Claims{
		AccountType: string(account.Type),
		Email:       account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  account.Email,
			Issuer:   m.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, decodes the payload, and re-resolves the
// embedded account. Signature and structure failures surface as
// ErrMalformedToken; a decoded token whose account no longer exists is
// ErrNotAuthenticated. Nothing panics past this boundary.
func (m *Manager) Verify(ctx context.Context, value string) (identity.Identity, error) {
	parsed, err := jwt.ParseWithClaims(value, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		return identity.Identity{}, identity.ErrMalformedToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return identity.Identity{}, identity.ErrMalformedToken
	}
	if !model.AccountType(claims.AccountType).Valid() {
		return identity.Identity{}, identity.ErrMalformedToken
	}

	account, err := m.accounts.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return identity.Identity{}, identity.ErrNotAuthenticated
		}
		return identity.Identity{}, err
	}
	return identity.FromAccount(account), nil
}

// Resolve implements identity.Resolver over signed tokens.
func (m *Manager) Resolve(ctx context.Context, credential string) (identity.Identity, error) {
	return m.Verify(ctx, credential)
}
