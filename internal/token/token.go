// Package token issues and verifies the signed session tokens that prove
// authentication on protected requests. Tokens are stateless: validity is
// purely a function of signature and expiry, so a logout cannot revoke an
// outstanding token before it expires.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hughigh/loginserver/types"
)

// ErrInvalidToken covers every verification failure: malformed, expired, or
// tampered tokens all look the same to callers.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the session token claim set.
type Claims struct {
	UserID string     `json:"user_id"`
	Role   types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a shared HS256 secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue mints a signed token carrying the user's id and role, valid from now
// until now plus the configured TTL.
func (c *Codec) Issue(userID string, role types.Role) (string, error) {
	now := c.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Verify checks signature and expiry and returns the claims. Any failure is
// reported as ErrInvalidToken without further detail.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
