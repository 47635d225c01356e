package domain

import "time"

// Message is a persisted direct message. The streaming core only ever
// consumes a read-only snapshot of this record after it has been
// durably written; it never mutates it.
type Message struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	SenderID    int64     `gorm:"index;not null;index:ix_messages_pair_time,priority:1" json:"sender_id"`
	RecipientID int64     `gorm:"index;not null;index:ix_messages_pair_time,priority:2" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index;not null;index:ix_messages_pair_time,priority:3" json:"created_at"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// SendMessageRequest is the payload for POST /messages.
type SendMessageRequest struct {
	RecipientID int64  `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required,min=1,max=4000"`
}

// ChatHistory is the result of GET /messages/:user_id.
type ChatHistory struct {
	WithUserID int64      `json:"with_user_id"`
	Messages   []*Message `json:"messages"`
}
