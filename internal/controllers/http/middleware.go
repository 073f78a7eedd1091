package http

import (
	"log"
	"net/http"
	"strings"

	"commerce-service/internal/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// AuthGuard rejects requests without a valid access token. With roles given,
// the token's role must be one of them.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing token")
			return
		}

		claims, err := parseBearer(secret, raw)
		if err != nil {
			log.Printf("[auth] rejected token: %v", err)
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if claims.Role == r {
					match = true
					break
				}
			}
			if !match {
				abort(c, http.StatusForbidden, "forbidden", "forbidden")
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, auth.RoleAdmin)
}

// OptionalAuth reads a bearer token when one is sent; a bad token is still an
// error, a missing one is not.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}
		claims, err := parseBearer(secret, raw)
		if err != nil {
			log.Printf("[auth] rejected token: %v", err)
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func parseBearer(secret, header string) (*auth.Claims, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, auth.ErrInvalidToken
	}
	claims, err := auth.Parse(secret, parts[1])
	if err != nil {
		return nil, err
	}
	if claims.Purpose != auth.PurposeAccess {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func isAdmin(claims *auth.Claims) bool {
	return claims != nil && claims.Role == auth.RoleAdmin
}

// canActFor reports whether the caller may read or change customerID's data.
func canActFor(claims *auth.Claims, customerID uint64) bool {
	return isAdmin(claims) || (claims != nil && claims.CustomerID != 0 && claims.CustomerID == customerID)
}
