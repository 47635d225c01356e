package repository

import (
	"context"
	"errors"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository is the account store: read-mostly identity resolution
// plus registration writes.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	TouchLastSeen(ctx context.Context, id int64) (*domain.User, error)
}

// MessageRepository is the message store. Persist is durable before it
// returns; the streaming core consumes the returned snapshot and never
// writes through this interface.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	History(ctx context.Context, userA, userB int64) ([]*domain.Message, error)
}
