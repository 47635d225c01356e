package service

import (
	"context"
	"errors"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/auth"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/repository"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
)

// ErrInvalidCredentials is returned when a login fails, regardless of
// whether the user exists or the password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type userServiceImpl struct {
	repo   repository.UserRepository
	tokens *auth.Manager
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, tokens *auth.Manager) UserService {
	return &userServiceImpl{
		repo:   repo,
		tokens: tokens,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	l.Info().Int64(log.FieldUserID, user.ID).Str(log.FieldUsername, user.Username).Msg("user registered")
	return user.ToResponse(), nil
}

// Login verifies the password and issues an access token signed with
// the process-wide secret, the same secret the streaming admission path
// validates against.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldUserID, user.ID).Msg("failed to issue token")
		return nil, err
	}

	return &domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// List returns all users ordered by username.
func (s *userServiceImpl) List(ctx context.Context) ([]*domain.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}

// Me returns the caller's account and stamps last_seen.
func (s *userServiceImpl) Me(ctx context.Context, userID int64) (*domain.UserResponse, error) {
	user, err := s.repo.TouchLastSeen(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}
