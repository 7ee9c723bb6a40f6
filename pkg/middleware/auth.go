package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Identity is the resolved caller: who they are and their access level.
type Identity struct {
	User string
	Role string
}

const (
	RoleChair       = "chair"
	RoleContributor = "contributor"
)

// IdentityResolver turns a raw credential (session token or JWT) into
// an identity. Returns (nil, nil) when the credential is unknown.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

const identityKey = "identity"

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "auth-token"

// Authentication resolves the caller's identity from the session cookie
// or a Bearer header and stores it on the context. Unauthenticated
// requests pass through; route guards decide what needs an identity.
// When an OIDC verifier is configured, Bearer tokens that the resolver
// does not recognise are tried against it and mapped to a contributor.
func Authentication(res IdentityResolver, ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := credentialFrom(c)
		if raw == "" {
			c.Next()
			return
		}

		if res != nil {
			id, err := res.Resolve(c.Request.Context(), raw)
			if err == nil && id != nil {
				c.Set(identityKey, id)
				c.Next()
				return
			}
		}

		if ver != nil {
			if idToken, err := ver.Verify(c.Request.Context(), raw); err == nil {
				var claims map[string]interface{}
				if err := idToken.Claims(&claims); err == nil {
					c.Set("claims", claims)
					if sub, ok := claims["sub"].(string); ok && sub != "" {
						user := sub
						if name, ok := claims["preferred_username"].(string); ok && name != "" {
							user = name
						}
						c.Set(identityKey, &Identity{User: user, Role: RoleContributor})
					}
				}
			}
		}
		c.Next()
	}
}

func credentialFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}
	var token string
	if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
		return ""
	}
	return token
}

// GetIdentity returns the identity stored by Authentication, if any.
func GetIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}

// RequireAuth aborts with 401 when no identity was resolved.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireChair aborts with 403 unless the caller is the chair.
func RequireChair() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if id.Role != RoleChair {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "chair role required"})
			return
		}
		c.Next()
	}
}
