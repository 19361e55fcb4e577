// Package authz is the per-operation access check applied after a
// session or token has resolved an identity. It is a pure function of
// the identity, the requested resource, and the operation's policy; it
// touches no storage.
package authz

import (
	"campanile/api/internal/identity"
	"campanile/api/internal/model"
)

// Resource names what an operation is about to touch. OwnerEmail is
// empty for resources nobody owns.
type Resource struct {
	Kind       string
	OwnerEmail string
}

// Policy declares which account variants may perform an operation.
// Variants listed in OwnerOnly are additionally restricted to resources
// they own; variants listed only in Allowed reach everything.
type Policy struct {
	Allowed   []model.AccountType
	OwnerOnly []model.AccountType
}

// Authorize permits or rejects an operation. A nil identity is
// ErrNotAuthenticated; a variant outside the policy, or an ownership
// mismatch, is ErrForbidden. On success the identity passes through
// unchanged.
func Authorize(who *identity.Identity, resource Resource, policy Policy) error {
	if who == nil {
		return identity.ErrNotAuthenticated
	}
	if !contains(policy.Allowed, who.Type) {
		return identity.ErrForbidden
	}
	if contains(policy.OwnerOnly, who.Type) && resource.OwnerEmail != who.Email {
		return identity.ErrForbidden
	}
	return nil
}

func contains(types []model.AccountType, t model.AccountType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
