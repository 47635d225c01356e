package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create persists a message. The row is durable when this returns; the
// caller feeds the stored snapshot to the dispatcher afterwards.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// History returns the conversation between two users in both
// directions, ordered by created_at ascending.
func (r *GormMessageRepository) History(ctx context.Context, userA, userB int64) ([]*domain.Message, error) {
	var messages []*domain.Message
	result := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at asc").
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}
	return messages, nil
}
