// Package audit defines the append-only custody event log.
//
// The product store keeps only the latest snapshot; this log is the
// sole source of full custody history. External indexers replay it in
// commit order, keyed by product id, to reconstruct every chain of
// ownership the store has long forgotten.
package audit

import (
	"time"

	id "custos/pkg/domain"
)

// Kind discriminates the two event shapes the log records.
type Kind string

const (
	// KindProductRegistered marks the creation of a product record.
	KindProductRegistered Kind = "product_registered"

	// KindStatusUpdated marks a custody transfer: status and owner
	// change together in one committed step.
	KindStatusUpdated Kind = "status_updated"
)

// Event is one committed entry of the log. Keep it transport-agnostic
// so stores and the Kafka relay can fan out without translation.
//
// Seq is assigned by the store at append time and is strictly
// increasing in commit order across all products; consumers must replay
// by Seq, never by Timestamp.
type Event struct {
	Seq       uint64       `json:"seq"`
	Kind      Kind         `json:"kind"`
	ProductID id.ProductID `json:"product_id"`
	Timestamp time.Time    `json:"timestamp"`

	// Registration fields (KindProductRegistered).
	Authority  id.PartyID `json:"authority,omitzero"`
	DetailsURI string     `json:"details_uri,omitempty"`

	// Transfer fields (KindStatusUpdated).
	OldOwner id.PartyID `json:"old_owner,omitzero"`
	NewOwner id.PartyID `json:"new_owner,omitzero"`
	Status   string     `json:"status,omitempty"`
}

// NewProductRegistered builds the registration event.
func NewProductRegistered(productID id.ProductID, authority id.PartyID, at time.Time, detailsURI string) Event {
	return Event{
		Kind:       KindProductRegistered,
		ProductID:  productID,
		Authority:  authority,
		Timestamp:  at,
		DetailsURI: detailsURI,
	}
}

// NewStatusUpdated builds the transfer event.
func NewStatusUpdated(productID id.ProductID, oldOwner, newOwner id.PartyID, status string, at time.Time) Event {
	return Event{
		Kind:      KindStatusUpdated,
		ProductID: productID,
		OldOwner:  oldOwner,
		NewOwner:  newOwner,
		Status:    status,
		Timestamp: at,
	}
}
