package jwtx

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Claims are the access-token claims the console reads from the bearer token
// issued by the auth service. Everything is optional; tokens issued by other
// deployments may carry only a subject.
type Claims struct {
	jwt.RegisteredClaims

	// Roles granted to the subject ["ADMIN"]
	Roles []string `json:"roles,omitempty"`

	// Name is the display name for the user
	Name string `json:"name,omitempty"`

	// Email of the authenticated user
	Email string `json:"email,omitempty"`

	// Username for the authenticated user
	Username string `json:"username,omitempty"`
}

// Peek decodes the claims of a JWT without verifying its signature.
//
// The console never holds the auth service's keys: the token is only a
// credential it forwards, and every backend verifies it again. Peek is only
// used to label the session, never to make an access decision.
func Peek(token string) (Claims, error) {
	// Cheap pre-check so opaque tokens don't go through the parser
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, errors.Join(ErrMalformed, err)
	}

	return claims, nil
}

// DisplayName picks the most human friendly name present in the claims.
func (c *Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Username
}

// ExpiresAtTime returns the "exp" claim, if set.
func (c *Claims) ExpiresAtTime() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// ValidateExpiry ensures the token hasn’t expired (exp) and isn’t before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	// Check After Leeway
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	// Check Before Leeway
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
