package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims decodes a JWT access token without verifying its signature. The
// result is for display only; the server remains the authority.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("access token is not a JWT: %w", err)
	}
	return claims, nil
}

// Subject returns the "sub" claim of a JWT access token, or "" for opaque tokens.
func Subject(token string) string {
	claims, err := Claims(token)
	if err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
