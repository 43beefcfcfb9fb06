// Package auth verifies the identity tokens minted by the external auth
// service. This process never issues tokens, it only checks them.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/mquell/undercover/internal/game"
)

// ErrRejected is returned for any token that does not verify. The
// connection carrying it is refused before any state is touched.
var ErrRejected = errors.New("authentication rejected")

type claims struct {
	Name      string `json:"name"`
	AvatarRef string `json:"avatarRef"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 identity tokens.
type Verifier struct {
	secret []byte
	clock  clockwork.Clock
}

// NewVerifier creates a verifier for the shared signing secret.
func NewVerifier(secret []byte, clock clockwork.Clock) *Verifier {
	return &Verifier{secret: secret, clock: clock}
}

// Verify parses the token and returns the identity it carries.
func (v *Verifier) Verify(token string) (game.Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.clock.Now))
	if err != nil || !parsed.Valid {
		return game.Identity{}, ErrRejected
	}
	if c.Subject == "" {
		return game.Identity{}, ErrRejected
	}
	return game.Identity{
		ID:        c.Subject,
		Name:      c.Name,
		AvatarRef: c.AvatarRef,
	}, nil
}
