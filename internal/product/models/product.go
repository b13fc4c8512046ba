package models

import (
	"time"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// InitialStatus is stamped on every product at registration.
const InitialStatus = "Registered at Manufacturing"

// Product is the current snapshot of one registered good.
//
// Invariants:
//   - ID is non-empty and unique for the lifetime of the store
//   - CurrentOwner is never the null identity
//   - RegisteredAt and DetailsURI are immutable after construction
//   - Status is non-empty; it stays a free-form string on purpose —
//     handling chains disagree on stage vocabularies, so custos records
//     what the owner says instead of imposing an enum
//   - IsGenuine is true at creation and no exposed operation changes
//     it; the field is a reserved extension point for revocation
//
// The store holds only this snapshot. Prior owners and statuses live
// exclusively in the audit log.
type Product struct {
	ID           id.ProductID `json:"id"`
	CurrentOwner id.PartyID   `json:"current_owner"`
	IsGenuine    bool         `json:"is_genuine"`
	Status       string       `json:"status"`
	DetailsURI   string       `json:"details_uri"`
	RegisteredAt time.Time    `json:"registered_at"`
}

// NewProduct constructs a freshly registered product owned by the
// authority that registered it.
func NewProduct(productID id.ProductID, authority id.PartyID, detailsURI string, now time.Time) (*Product, error) {
	if productID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product id cannot be empty")
	}
	if authority.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product owner cannot be the null identity")
	}
	return &Product{
		ID:           productID,
		CurrentOwner: authority,
		IsGenuine:    true,
		Status:       InitialStatus,
		DetailsURI:   detailsURI,
		RegisteredAt: now,
	}, nil
}

// CanTransfer checks whether caller may hand the product to newOwner
// with the given status. Returns an error for the first violated
// precondition; the order matters — ownership is checked before input
// validation so a non-owner learns nothing about the inputs.
// Use with ApplyTransfer in Execute callbacks.
func (p *Product) CanTransfer(caller, newOwner id.PartyID, newStatus string) error {
	if p.CurrentOwner != caller {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the current owner")
	}
	if newOwner.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "new owner is required")
	}
	if newStatus == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

// ApplyTransfer moves custody. Status and owner change together; every
// other field is untouched. Call CanTransfer first.
func (p *Product) ApplyTransfer(newOwner id.PartyID, newStatus string) {
	p.CurrentOwner = newOwner
	p.Status = newStatus
}

// Clone returns an independent copy so no snapshot aliases the one the
// store owns.
func (p *Product) Clone() *Product {
	clone := *p
	return &clone
}
