package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stdtrack/stdtrack/internal/config"
	"github.com/stdtrack/stdtrack/internal/sessions"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = secret
	return cfg
}

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	cfg := testConfig("test-secret-32-bytes-should-be-long-enough")

	tokenStr, err := GenerateAccessToken(cfg, sessions.RoleContributor, "alice", 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := ParseAccessToken(cfg, tokenStr)
	if err != nil {
		t.Fatalf("ParseAccessToken error: %v", err)
	}
	if claims.User != "alice" {
		t.Fatalf("unexpected user claim: got=%v want=alice", claims.User)
	}
	if claims.Role != sessions.RoleContributor {
		t.Fatalf("unexpected role claim: got=%v", claims.Role)
	}
}

func TestGenerateAccessToken_Expiry(t *testing.T) {
	cfg := testConfig("another-secret-32-bytes-longgggg")
	tokenStr, err := GenerateAccessToken(cfg, sessions.RoleChair, "chair", 1*time.Second)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	// wait for expiry
	time.Sleep(2 * time.Second)
	if _, err := ParseAccessToken(cfg, tokenStr); err == nil {
		t.Fatalf("expected token parse to fail after expiry")
	}
}

func TestParseAccessToken_WrongSecretFails(t *testing.T) {
	cfg := testConfig("secret-one-32-bytes-xxxxxxxxxxxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, sessions.RoleChair, "chair", 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	other := testConfig("different-secret-xxxxxxxxxxxxxxxx")
	if _, err := ParseAccessToken(other, tokenStr); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseAccessToken_Malformed(t *testing.T) {
	cfg := testConfig("x")
	if _, err := ParseAccessToken(cfg, "not.a.jwt"); err == nil {
		t.Fatalf("expected parse to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestParseAccessToken_AlgNoneRejected(t *testing.T) {
	payload := `{"sub":"u-none","role":"chair","exp":9999999999}`
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(payload))
	tok := headerEnc + "." + payloadEnc + "."
	cfg := testConfig("x")
	if _, err := ParseAccessToken(cfg, tok); err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

// Tampering with payload must fail signature verification
func TestParseAccessToken_TamperedPayload(t *testing.T) {
	cfg := testConfig("tamper-test-secret-32-bytes-xxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, sessions.RoleContributor, "user-t", 5*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	// tamper payload: replace sub value
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	payloadStr := strings.Replace(string(payloadBytes), "user-t", "attacker", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payloadStr))
	tampered := strings.Join(parts, ".")
	if _, err := ParseAccessToken(cfg, tampered); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

// Rejects a structurally valid token whose role is not a known role.
func TestParseAccessToken_UnknownRoleRejected(t *testing.T) {
	cfg := testConfig("role-check-secret-32-bytes-xxxxxxxx")
	claims := jwt.MapClaims{
		"sub":  "mallory",
		"role": "superuser",
		"exp":  time.Now().Add(time.Minute).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := jt.SignedString([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, tokenStr); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}
