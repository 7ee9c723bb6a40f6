package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stdtrack/stdtrack/internal/config"
	"github.com/stdtrack/stdtrack/internal/sessions"
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims is the identity carried by an access token.
type Claims struct {
	User string
	Role sessions.Role
}

// GenerateAccessToken creates a signed JWT access token for API clients
// that prefer a bearer header over the session cookie.
func GenerateAccessToken(cfg *config.Config, role sessions.Role, user string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user,
		"role": string(role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.Auth.JWTSecret))
}

// ParseAccessToken validates the signature and expiry and returns the
// embedded identity.
func ParseAccessToken(cfg *config.Config, raw string) (*Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Auth.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	user, _ := mc["sub"].(string)
	roleStr, _ := mc["role"].(string)
	role := sessions.Role(roleStr)
	if user == "" || !role.Valid() {
		return nil, ErrInvalidToken
	}
	return &Claims{User: user, Role: role}, nil
}
