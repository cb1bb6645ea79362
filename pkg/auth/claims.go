package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CartSessionClaims identifies an anonymous buyer cart. The session id is
// carried in the registered subject claim.
type CartSessionClaims struct {
	Currency string `json:"currency,omitempty"`
	jwt.RegisteredClaims
}

// SessionID returns the cart session the token was minted for.
func (c CartSessionClaims) SessionID() string {
	return c.Subject
}
