package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// Session is an authenticated user and the bearer token issued to them.
type Session struct {
	User  *models.User
	Token string
}

// Sessions ties an Authenticator to token issuance and translates auth
// failures into apperr kinds for the transports.
type Sessions struct {
	authenticator Authenticator
	users         UserStorage
	jwtManager    *JWTManager
	logger        *slog.Logger
}

// NewSessions creates a session service.
func NewSessions(authenticator Authenticator, users UserStorage, jwtManager *JWTManager, logger *slog.Logger) *Sessions {
	return &Sessions{
		authenticator: authenticator,
		users:         users,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates an account and returns a session for it.
func (s *Sessions) Register(ctx context.Context, email, displayName, password string) (*Session, error) {
	s.logger.Info("Register request", "email", email)

	if strings.TrimSpace(email) == "" || strings.TrimSpace(displayName) == "" {
		return nil, apperr.BadRequest("email and display name are required")
	}

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		s.logger.Error("Registration failed", "email", email, "error", err)
		switch {
		case errors.Is(err, ErrEmailExists):
			return nil, apperr.Conflict(ErrEmailExists.Error())
		case errors.Is(err, ErrWeakPassword):
			return nil, apperr.BadRequest(ErrWeakPassword.Error())
		}
		return nil, apperr.Persistence("failed to register user", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return session, nil
}

// Login authenticates a user and returns a fresh session.
func (s *Sessions) Login(ctx context.Context, email, password string) (*Session, error) {
	s.logger.Info("Login request", "email", email)

	if email == "" || password == "" {
		return nil, apperr.BadRequest("email and password are required")
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if errors.Is(err, ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, apperr.Unauthenticated(ErrInvalidCredentials.Error())
	}
	if err != nil {
		s.logger.Error("Login failed", "email", email, "error", err)
		return nil, apperr.Persistence("failed to authenticate", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return session, nil
}

// CurrentUser loads the account behind an authenticated user ID.
func (s *Sessions) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated(ErrMissingToken.Error())
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		s.logger.Error("Failed to load user", "user_id", userID, "error", err)
		return nil, apperr.Persistence("failed to load user", err)
	}
	return user, nil
}

// IssueToken mints a token for an existing user ID.
func (s *Sessions) IssueToken(ctx context.Context, userID string) (*Session, error) {
	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *Sessions) issue(user *models.User) (*Session, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, apperr.Wrap(apperr.KindPersistence, "failed to issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}
