package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens and JWTs without exp.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// expiryOr picks the expiry of token, falling back to now+ttl.
func expiryOr(token string, now time.Time, ttl time.Duration) time.Time {
	if exp, ok := TokenExpiry(token); ok {
		return exp
	}
	return now.Add(ttl)
}
