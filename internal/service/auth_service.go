package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/models"
	pb "github.com/mmynk/fintrack/pkg/fintrackv1"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	sessions *auth.Sessions
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(sessions *auth.Sessions, logger *slog.Logger) *AuthService {
	return &AuthService{
		sessions: sessions,
		logger:   logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[pb.RegisterRequest]) (*connect.Response[pb.RegisterResponse], error) {
	session, err := s.sessions.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.RegisterResponse{
		User:  toPbUser(session.User),
		Token: session.Token,
	}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[pb.LoginRequest]) (*connect.Response[pb.LoginResponse], error) {
	session, err := s.sessions.Login(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.LoginResponse{
		User:  toPbUser(session.User),
		Token: session.Token,
	}), nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[pb.GetCurrentUserRequest]) (*connect.Response[pb.GetCurrentUserResponse], error) {
	// Get user ID from context (set by auth middleware)
	userID := middleware.GetUserID(ctx)
	s.logger.Info("GetCurrentUser request", "user_id", userID)

	user, err := s.sessions.CurrentUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.GetCurrentUserResponse{User: toPbUser(user)}), nil
}

func toPbUser(u *models.User) *pb.User {
	return &pb.User{
		Id:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}
