// Package auth issues and verifies the HS256 tokens used by the API and by
// password reset links.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"

	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	CustomerID uint64
	Email      string
	Role       string
	Purpose    string
	ExpiresAt  time.Time
}

func Issue(secret string, c Claims) (string, error) {
	claims := jwt.MapClaims{
		"role":    c.Role,
		"purpose": c.Purpose,
		"exp":     c.ExpiresAt.Unix(),
	}
	if c.CustomerID != 0 {
		claims["sub"] = strconv.FormatUint(c.CustomerID, 10)
	}
	if c.Email != "" {
		claims["email"] = c.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse verifies signature and expiry. Tokens without a purpose are access
// tokens.
func Parse(secret, raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	c := &Claims{Purpose: PurposeAccess}
	c.Role, _ = mc["role"].(string)
	c.Email, _ = mc["email"].(string)
	if p, _ := mc["purpose"].(string); p != "" {
		c.Purpose = p
	}
	if sub, _ := mc["sub"].(string); sub != "" {
		id, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
		}
		c.CustomerID = id
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
