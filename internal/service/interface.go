package service

import (
	"context"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
)

// UserService covers registration, login, and identity reads.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error)
	List(ctx context.Context) ([]*domain.UserResponse, error)
	Me(ctx context.Context, userID int64) (*domain.UserResponse, error)
}

// MessageService persists messages and hands them to the dispatcher.
type MessageService interface {
	Send(ctx context.Context, senderID int64, req *domain.SendMessageRequest) (*domain.Message, error)
	History(ctx context.Context, userID, withUserID int64) (*domain.ChatHistory, error)
}
