// Package guard holds the access control predicates gating every
// mutation. Checks are pure: the guard never mutates anything, so a
// failed precondition leaves store and log untouched by construction.
package guard

import (
	"context"

	"custos/internal/product/models"
	id "custos/pkg/domain"
)

// SnapshotReader is the read-only slice of the product store the guard
// needs for ownership checks.
type SnapshotReader interface {
	FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error)
}

// Guard answers the two capability questions custos has: "is this the
// registering authority?" and "does this caller currently hold this
// product?".
//
// The authority identity is captured once at construction and never
// changes; there is no runtime mutation path.
type Guard struct {
	authority id.PartyID
	products  SnapshotReader
}

func New(authority id.PartyID, products SnapshotReader) *Guard {
	return &Guard{authority: authority, products: products}
}

// Authority returns the configured registering authority.
func (g *Guard) Authority() id.PartyID {
	return g.authority
}

// IsAuthority reports whether caller is the registering authority.
func (g *Guard) IsAuthority(caller id.PartyID) bool {
	return !caller.IsNil() && caller == g.authority
}

// IsCurrentOwner reports whether caller holds custody of the product.
// The error is non-nil only for store failures; an unknown product id
// yields (false, sentinel.ErrNotFound) so services can distinguish
// "not my product" from "product doesn't exist".
func (g *Guard) IsCurrentOwner(ctx context.Context, productID id.ProductID, caller id.PartyID) (bool, error) {
	product, err := g.products.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}
	return !caller.IsNil() && product.CurrentOwner == caller, nil
}
