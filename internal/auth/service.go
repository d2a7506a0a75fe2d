package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"portfolio/internal/metrics"
	"portfolio/internal/models"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike. The message must stay identical for both cases so
	// responses carry no account-existence oracle.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAuthUnavailable hides infrastructure failures behind a generic
	// message; the detail is logged server-side.
	ErrAuthUnavailable = errors.New("authentication error")

	// ErrNotAuthenticated covers every path where no live session backs
	// the request: missing token, bad signature, revoked or expired
	// session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Service implements the credential verifier, token issuer, and the
// stateful half of the access gate.
type Service struct {
	db     *gorm.DB
	signer *Signer
	log    zerolog.Logger
	now    func() time.Time
}

// NewService wires the auth flow against the given database and signer.
func NewService(database *gorm.DB, signer *Signer, log zerolog.Logger) *Service {
	return &Service{
		db:     database,
		signer: signer,
		log:    log.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

// Signer exposes the token signer for the edge check.
func (s *Service) Signer() *Signer { return s.signer }

// Authenticate checks the submitted credentials and returns a public-safe
// projection on success. Lookup misses and hash mismatches yield the same
// failure.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.PublicUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.PublicUser{}, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.PublicUser{}, ErrInvalidCredentials
	case err != nil:
		s.log.Error().Err(err).Msg("user lookup failed")
		return models.PublicUser{}, ErrAuthUnavailable
	}

	if !CheckPassword(user.PasswordHash, password) {
		return models.PublicUser{}, ErrInvalidCredentials
	}

	return user.Public(), nil
}

// IssueSession mints an access token for the user and records the session
// row before the token is handed out. The access gate depends on that row
// existing, so the write happens first.
func (s *Service) IssueSession(ctx context.Context, user models.PublicUser) (string, time.Time, error) {
	now := s.now().UTC()
	token, claims, err := s.signer.Sign(user, now)
	if err != nil {
		s.log.Error().Err(err).Msg("token signing failed")
		return "", time.Time{}, ErrAuthUnavailable
	}

	session := models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		s.log.Error().Err(err).Msg("session create failed")
		return "", time.Time{}, ErrAuthUnavailable
	}

	s.audit(ctx, &user.ID, "auth.login", "session", session.ID.String())

	return token, session.ExpiresAt, nil
}

// VerifySession is the stateful half of the access gate: it re-resolves
// the token against the sessions table and rejects when no live row
// exists, regardless of signature validity. An expired row is deleted on
// the way out; that cleanup is best-effort and never blocks the rejection.
func (s *Service) VerifySession(ctx context.Context, token string) (models.PublicUser, error) {
	if token == "" {
		return models.PublicUser{}, ErrNotAuthenticated
	}
	if _, err := s.signer.Parse(token); err != nil {
		return models.PublicUser{}, ErrNotAuthenticated
	}

	var session models.Session
	err := s.db.WithContext(ctx).Preload("User").
		Where("token = ?", token).First(&session).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.PublicUser{}, ErrNotAuthenticated
	case err != nil:
		s.log.Error().Err(err).Msg("session lookup failed")
		return models.PublicUser{}, ErrNotAuthenticated
	}

	if session.Expired(s.now()) {
		if err := s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", session.ID).Error; err != nil {
			s.log.Warn().Err(err).Msg("stale session cleanup failed")
		} else {
			metrics.SessionsRevoked.WithLabelValues("expired").Inc()
		}
		return models.PublicUser{}, ErrNotAuthenticated
	}

	return session.User.Public(), nil
}

// Logout revokes the session backing the token. Calling it with no active
// session is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	res := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{})
	if res.Error != nil {
		s.log.Error().Err(res.Error).Msg("session delete failed")
		return fmt.Errorf("logout: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.SessionsRevoked.WithLabelValues("logout").Inc()
		s.audit(ctx, nil, "auth.logout", "session", "")
	}
	return nil
}

// audit records an auth event; failures are logged and swallowed.
func (s *Service) audit(ctx context.Context, actor *uuid.UUID, action, targetType, targetID string) {
	entry := models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actor,
		Action:     action,
		TargetType: targetType,
		Metadata:   datatypes.JSON(`{}`),
	}
	if targetID != "" {
		entry.TargetID = &targetID
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
