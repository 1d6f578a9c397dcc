// Package auth implements account registration and bearer-session
// authentication for the merchant dashboard.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionInvalid     = errors.New("session invalid or expired")
)

// Service owns user accounts and their sessions. Each new account gets a
// widget key (the public identifier embedded in the storefront snippet) and
// a widget configuration seeded with Italian defaults.
type Service struct {
	users    *storage.UserRepository
	sessions *storage.SessionRepository
	widgets  *storage.WidgetConfigRepository
	cfg      config.AuthConfig
	logger   *observability.Logger
}

func NewService(repos *storage.Repositories, cfg config.AuthConfig, logger *observability.Logger) *Service {
	return &Service{
		users:    repos.Users,
		sessions: repos.Sessions,
		widgets:  repos.WidgetConfigs,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates an account and its default widget configuration, then
// opens a session so the dashboard can log the user straight in.
func (s *Service) Register(ctx context.Context, email, password, companyName string) (*storage.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email address")
	}
	if len(password) < 6 {
		return nil, "", fmt.Errorf("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user := &storage.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CompanyName:  strings.TrimSpace(companyName),
		WidgetKey:    newWidgetKey(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	if err := s.widgets.Create(ctx, defaultWidgetConfig(user)); err != nil {
		s.logger.WithTenant(user.ID.String()).Warn().Err(err).Msg("Failed to create default widget config")
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithTenant(user.ID.String()).Info().Str("email", email).Msg("Account registered")
	return user, token, nil
}

// Login verifies credentials and opens a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*storage.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("loading user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout deletes the session; unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*storage.User, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrExpired) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

func (s *Service) openSession(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	session := &storage.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.cfg.SessionTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

// newWidgetKey returns the short public key embedded in widget snippets.
func newWidgetKey() string {
	return uuid.NewString()[:8]
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func defaultWidgetConfig(user *storage.User) *storage.WidgetConfig {
	return &storage.WidgetConfig{
		ID:             uuid.New(),
		TenantID:       user.ID,
		BotName:        "Assistente",
		WelcomeMessage: "Ciao! Come posso aiutarti oggi?",
		PrimaryColor:   "#4F46E5",
		Position:       "bottom-right",
		UpdatedAt:      time.Now().UTC(),
	}
}
