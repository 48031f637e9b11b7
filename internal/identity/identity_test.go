package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

func TestCartIdentityAuthenticated(t *testing.T) {
	r := NewResolver(session.NewMemoryStore())

	id, err := r.CartIdentity(context.Background(), Principal{
		UserID:        "user-1",
		Authenticated: true,
	}, "session-a")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestCartIdentityAnonymousIsStablePerSession(t *testing.T) {
	r := NewResolver(session.NewMemoryStore())
	ctx := context.Background()

	first, err := r.CartIdentity(ctx, Principal{}, "session-a")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := r.CartIdentity(ctx, Principal{}, "session-a")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := r.CartIdentity(ctx, Principal{}, "session-b")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestIsInRole(t *testing.T) {
	p := Principal{Roles: []string{RoleCustomer, RoleAdmin}}
	assert.True(t, p.IsInRole(RoleAdmin))
	assert.True(t, p.IsInRole(RoleCustomer))
	assert.False(t, Principal{}.IsInRole(RoleAdmin))
}
