// Package domain defines the typed identifiers shared across custos.
//
// Parties (the authority and every custody holder) are identified by
// UUIDs wrapped in a distinct type so a party id can never be confused
// with any other identifier at compile time. Products are identified by
// an opaque string key chosen by the registering authority (serial
// number, GTIN, EPC — custos does not interpret it).
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "custos/pkg/domain-errors"
)

// PartyID identifies a handling party. The zero value is the null
// identity and is never a valid owner.
type PartyID uuid.UUID

// NilParty is the null identity.
var NilParty = PartyID(uuid.Nil)

// ParsePartyID parses and validates a party id string.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParsePartyID(s string) (PartyID, error) {
	if s == "" {
		return NilParty, dErrors.New(dErrors.CodeInvalidInput, "party id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return NilParty, dErrors.Wrap(err, dErrors.CodeInvalidInput, "party id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return NilParty, dErrors.New(dErrors.CodeInvalidInput, "party id must not be the nil UUID")
	}
	return PartyID(parsed), nil
}

// IsNil reports whether the id is the null identity.
func (p PartyID) IsNil() bool {
	return uuid.UUID(p) == uuid.Nil
}

func (p PartyID) String() string {
	return uuid.UUID(p).String()
}

// MarshalText renders the id in canonical UUID form so PartyID fields
// serialize as strings in JSON payloads and event records.
func (p PartyID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(p).String()), nil
}

// UnmarshalText parses a canonical UUID string. The nil UUID is
// accepted here: requests carrying the null identity must surface as
// InvalidOwner at the service layer, not as a decode failure.
func (p *PartyID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "party id must be a valid UUID")
	}
	*p = PartyID(parsed)
	return nil
}

// MaxProductIDLength bounds product keys so a single malformed request
// cannot bloat the store or the event log.
const MaxProductIDLength = 128

// ProductID is the opaque, immutable key of a registered product.
type ProductID string

// ParseProductID validates a product id. The key stays opaque: only
// non-emptiness and a length cap are enforced.
func ParseProductID(s string) (ProductID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "product id is required")
	}
	if len(s) > MaxProductIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "product id must be 128 characters or less")
	}
	return ProductID(s), nil
}

func (p ProductID) String() string {
	return string(p)
}
