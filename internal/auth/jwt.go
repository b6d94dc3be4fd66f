// Package auth resolves the caller identity from HS256 bearer tokens and
// enforces the per-route role policy.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"society/internal/core"
)

// Claims represents JWT claims used by this service.
type Claims struct {
	Role     string `json:"role"`
	MemberID string `json:"member_id"`
	FlatNo   string `json:"flat_no"`
	jwt.RegisteredClaims
}

// ParseJWT validates a JWT and returns claims.
func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("auth: empty token")
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("auth: missing sub")
	}
	if _, err := core.ParseRole(claims.Role); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return claims, nil
}

// Identity converts validated claims to a caller identity. member_id
// defaults to the subject.
func (c *Claims) Identity() Identity {
	role, _ := core.ParseRole(c.Role)
	member := c.MemberID
	if member == "" {
		member = c.Subject
	}
	return Identity{Subject: c.Subject, MemberID: member, FlatNo: c.FlatNo, Role: role}
}

// IssueToken signs an HS256 token for id valid for ttl.
func IssueToken(secret []byte, id Identity, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth: empty secret")
	}
	if !id.Role.Valid() {
		return "", fmt.Errorf("auth: %w: %q", core.ErrInvalidRole, id.Role)
	}
	claims := Claims{
		Role:     string(id.Role),
		MemberID: id.MemberID,
		FlatNo:   id.FlatNo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
