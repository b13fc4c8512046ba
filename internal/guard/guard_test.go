package guard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/product/models"
	productstore "custos/internal/product/store/product"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

func newParty() id.PartyID {
	return id.PartyID(uuid.New())
}

func TestIsAuthority(t *testing.T) {
	authority := newParty()
	g := New(authority, productstore.NewInMemory())

	assert.True(t, g.IsAuthority(authority))
	assert.False(t, g.IsAuthority(newParty()))
	assert.False(t, g.IsAuthority(id.NilParty), "null identity is never the authority")
	assert.Equal(t, authority, g.Authority())
}

func TestIsCurrentOwner(t *testing.T) {
	ctx := context.Background()
	authority := newParty()
	owner := newParty()

	store := productstore.NewInMemory()
	product, err := models.NewProduct("SN-001", owner, "ipfs://x", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateIfAbsent(ctx, product))

	g := New(authority, store)

	t.Run("true for the holder", func(t *testing.T) {
		ok, err := g.IsCurrentOwner(ctx, "SN-001", owner)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("false for anyone else", func(t *testing.T) {
		ok, err := g.IsCurrentOwner(ctx, "SN-001", newParty())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("false for the null identity", func(t *testing.T) {
		ok, err := g.IsCurrentOwner(ctx, "SN-001", id.NilParty)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("surfaces unknown products", func(t *testing.T) {
		_, err := g.IsCurrentOwner(ctx, "SN-404", owner)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
