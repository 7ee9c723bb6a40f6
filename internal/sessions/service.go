package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/stdtrack/stdtrack/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid role or password")
	ErrUsernameRequired   = errors.New("contributor login requires a username")
)

// Service wraps repository operations with business logic
type Service struct {
	repo   Repository
	creds  CredentialStore
	logins LoginRecorder
	ttl    time.Duration
}

func NewService(r Repository, creds CredentialStore, logins LoginRecorder, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{repo: r, creds: creds, logins: logins, ttl: ttl}
}

// Login checks the role password and opens a session. Contributors must
// supply a username; the chair logs in as "chair".
func (s *Service) Login(ctx context.Context, role Role, password, username string) (*Session, error) {
	creds, err := s.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case role == RoleChair && password == creds.ChairPassword:
	case role == RoleContributor && password == creds.ContributorPassword:
		if username == "" {
			return nil, ErrUsernameRequired
		}
	default:
		return nil, ErrInvalidCredentials
	}

	user := username
	if user == "" {
		user = string(role)
	}

	now := time.Now().UTC()
	if s.logins != nil {
		if err := s.logins.Record(ctx, user, role, now); err != nil {
			logger.Warnf("failed to record login for %s: %v", user, err)
		}
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	sess := &Session{
		Token:     hex.EncodeToString(b),
		Role:      role,
		User:      user,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate returns the session if the token is valid and not expired
func (s *Service) Validate(ctx context.Context, token string) (*Session, error) {
	sess, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		// cleanup expired session
		_ = s.repo.DeleteByToken(ctx, token)
		return nil, nil
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteByToken(ctx, token)
}

// Passwords returns the current role passwords. Handlers must restrict
// this to the chair.
func (s *Service) Passwords(ctx context.Context) (*Credentials, error) {
	return s.creds.Load(ctx)
}

// SetPasswords rotates both role passwords. Existing sessions stay
// valid; only new logins see the change.
func (s *Service) SetPasswords(ctx context.Context, chair, contributor string) error {
	if chair == "" || contributor == "" {
		return errors.New("both passwords are required")
	}
	return s.creds.Save(ctx, &Credentials{
		ChairPassword:       chair,
		ContributorPassword: contributor,
	})
}
