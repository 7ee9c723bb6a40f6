package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stdtrack/stdtrack/internal/config"
	"github.com/stdtrack/stdtrack/internal/sessions"
	"github.com/stdtrack/stdtrack/internal/tokens"
	"github.com/stdtrack/stdtrack/pkg/middleware"
)

// LoginRequest is the role-based login payload. Contributors must send
// a username; the chair logs in by role alone.
type LoginRequest struct {
	Role     string `json:"role" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.GET("/verify", h.Verify)
	a.GET("/settings", middleware.RequireChair(), h.GetSettings)
	a.PUT("/settings", middleware.RequireChair(), h.PutSettings)
}

// Resolve implements middleware.IdentityResolver: session tokens first,
// then signed access tokens (unless blacklisted by a logout).
func (h *AuthHandler) Resolve(ctx context.Context, token string) (*middleware.Identity, error) {
	sess, err := h.sessionsSvc.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return &middleware.Identity{User: sess.User, Role: string(sess.Role)}, nil
	}
	if black, err := sessions.IsAccessTokenBlacklisted(ctx, token); err == nil && black {
		return nil, nil
	}
	claims, err := tokens.ParseAccessToken(h.cfg, token)
	if err != nil {
		return nil, nil
	}
	return &middleware.Identity{User: claims.User, Role: string(claims.Role)}, nil
}

// Login checks the role password, opens a session cookie, and also
// returns a short-lived JWT for non-browser clients.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := sessions.Role(req.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	sess, err := h.sessionsSvc.Login(c.Request.Context(), role, req.Password, req.Username)
	if err != nil {
		writeError(c, err)
		return
	}

	access, err := tokens.GenerateAccessToken(h.cfg, sess.Role, sess.User, h.cfg.Auth.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	secure := h.cfg.Server.Environment == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"role":        sess.Role,
		"user":        sess.User,
		"accessToken": access,
	})
}

// Logout drops the session and blacklists a supplied bearer JWT for its
// remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie != "" {
		if err := h.sessionsSvc.Logout(c.Request.Context(), cookie); err != nil {
			writeError(c, err)
			return
		}
	}
	auth := c.GetHeader("Authorization")
	if auth != "" {
		var at string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &at); n == 1 {
			if exp, err := parseExpFromJWT(at); err == nil {
				if ttl := time.Until(exp); ttl > 0 {
					if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
						c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
						return
					}
				}
			}
		}
	}

	secure := h.cfg.Server.Environment == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Verify reports whether the request carries a live identity.
func (h *AuthHandler) Verify(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "role": id.Role, "user": id.User})
}

// GetSettings returns the current role passwords. Chair only.
func (h *AuthHandler) GetSettings(c *gin.Context) {
	creds, err := h.sessionsSvc.Passwords(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

// PutSettings rotates both role passwords. Chair only.
func (h *AuthHandler) PutSettings(c *gin.Context) {
	var req struct {
		ChairPassword       string `json:"chairPassword" binding:"required"`
		ContributorPassword string `json:"contributorPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessionsSvc.SetPasswords(c.Request.Context(), req.ChairPassword, req.ContributorPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// parseExpFromJWT decodes the JWT payload and returns the `exp` claim as time.Time.
// This performs payload-only parsing (no signature verification) and is suitable
// for computing remaining TTLs for blacklisting purposes.
func parseExpFromJWT(tok string) (time.Time, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid token")
	}
	payload := parts[1]
	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		// try standard base64 (pad) as a fallback
		b, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return time.Time{}, err
		}
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	v, ok := claims["exp"]
	if !ok {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	switch vv := v.(type) {
	case float64:
		return time.Unix(int64(vv), 0), nil
	case int64:
		return time.Unix(vv, 0), nil
	case json.Number:
		i64, err := vv.Int64()
		if err != nil {
			f, err2 := vv.Float64()
			if err2 != nil {
				return time.Time{}, err
			}
			return time.Unix(int64(f), 0), nil
		}
		return time.Unix(i64, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported exp type %T", v)
	}
}
