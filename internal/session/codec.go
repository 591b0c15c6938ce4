// Package session issues and verifies the name-only customer session tokens.
//
// A session is nothing more than a signed claim carrying the customer's name.
// There is no server-side store: a token is valid until it expires, and
// clearing the cookie on the client is the only way to end a session early.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of a customer session
const DefaultTTL = 7 * 24 * time.Hour

// CookieName is the httpOnly cookie carrying the session token
const CookieName = "customerSession"

type claims struct {
	CustomerName string `json:"customerName"`
	jwt.RegisteredClaims
}

// Result is the outcome of verifying a token
type Result struct {
	Valid        bool
	CustomerName string
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is how long issued tokens stay valid
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for customerName
func (c *Codec) Issue(customerName string) (string, error) {
	if customerName == "" {
		return "", errors.New("customer name is required")
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		CustomerName: customerName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify never fails: a bad signature, an expired token or a missing
// name all come back as an invalid Result
func (c *Codec) Verify(raw string) Result {
	if raw == "" {
		return Result{}
	}

	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || parsed.CustomerName == "" {
		return Result{}
	}

	return Result{Valid: true, CustomerName: parsed.CustomerName}
}
