// Package directory resolves account records by email across the three
// account variants.
package directory

import (
	"context"

	"campanile/api/internal/model"
)

// Store is the account lookup port. FindByEmail must return
// identity.ErrAccountNotFound when no variant holds the email; lookups
// are byte-exact, callers normalize case at the boundary.
//
// Account mutation lives in the surrounding CRUD layer, which hashes
// through crypto.HashPassword whenever a password field changes.
type Store interface {
	FindByEmail(ctx context.Context, email string) (model.Account, error)
}
