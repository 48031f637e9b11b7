// Package identity resolves who owns a cart: the authenticated user, or an
// anonymous visitor identified by a token held in server-side session state.
package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

// Role names recognized by the storefront.
const (
	RoleAdmin    = "Admin"
	RoleCustomer = "Customer"
)

// Principal describes the requester as established by the auth middleware.
type Principal struct {
	UserID        string
	Roles         []string
	Authenticated bool
}

// IsInRole reports whether the principal carries the given role.
func (p Principal) IsInRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

const cartIDKey = "cart_id"

// Resolver produces a stable cart-ownership identity per requester.
type Resolver struct {
	sessions session.Store
}

// NewResolver creates a cart identity resolver over a session store.
func NewResolver(sessions session.Store) *Resolver {
	return &Resolver{sessions: sessions}
}

// CartIdentity returns the cart identity for the requester.
//
// An authenticated principal always maps to its user id. Anonymous visitors
// map to a token stored in the session; the first call generates and stores
// the token, so repeated calls within a session return the same value.
func (r *Resolver) CartIdentity(ctx context.Context, p Principal, sessionID string) (string, error) {
	if p.Authenticated {
		return p.UserID, nil
	}

	cartID, err := r.sessions.Get(ctx, sessionID, cartIDKey)
	if err != nil {
		return "", err
	}
	if cartID != "" {
		return cartID, nil
	}

	cartID = uuid.NewString()
	if err := r.sessions.Set(ctx, sessionID, cartIDKey, cartID); err != nil {
		return "", err
	}
	return cartID, nil
}
