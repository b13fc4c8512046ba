// Package token mints and validates the bearer tokens parties use to
// call the mutating endpoints. Tokens are HMAC-signed JWTs whose
// subject is the party id; custos has no user accounts, a party IS its
// UUID.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

const issuer = "custos"

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{secret: secret, ttl: ttl}
}

// Mint issues a signed token for the given party.
func (m *Manager) Mint(party id.PartyID, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   party.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, issuer, and expiry, and returns the party
// the token was minted for.
func (m *Manager) Validate(tokenString string) (id.PartyID, error) {
	parsed, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return id.NilParty, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return id.NilParty, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	party, err := id.ParsePartyID(subject)
	if err != nil {
		return id.NilParty, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token subject")
	}
	return party, nil
}
