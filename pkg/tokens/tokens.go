package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token carries no exp claim")

// Claims is the subset of a backend credential the storefront reads.
type Claims struct {
	UserID  int64 `json:"user_id,omitempty"`
	IsAdmin bool  `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// Peek decodes a credential without checking its signature. The storefront
// never holds the signing secret; the backend stays the only verifier.
func Peek(tokenStr string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func Expiry(tokenStr string) (time.Time, error) {
	claims, err := Peek(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
