package domain

import "time"

// User is the account record backing both authentication and identity
// resolution. The numeric ID is the stable identifier referenced by
// messages and presence events.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(256);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime;not null" json:"created_at"`
	LastSeen     time.Time `gorm:"not null" json:"last_seen"`
}

// TableName specifies the table name for User.
func (User) TableName() string {
	return "users"
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// ToResponse converts a User to its public representation.
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		LastSeen:  u.LastSeen,
	}
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the result of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
