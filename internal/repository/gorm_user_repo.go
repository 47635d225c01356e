package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user account.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.LastSeen.IsZero() {
		user.LastSeen = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// List returns all users ordered by username.
func (r *GormUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	result := r.db.WithContext(ctx).Order("username asc").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

// TouchLastSeen stamps the user's last_seen and returns the updated row.
func (r *GormUserRepository) TouchLastSeen(ctx context.Context, id int64) (*domain.User, error) {
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("last_seen", time.Now().UTC())
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GormUserRepository) handleError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	// Driver-specific unique violation messages (sqlite, mysql, postgres).
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return ErrUsernameTaken
	}
	return err
}
