package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByChatId filters messages belonging to a chat
type ByChatId struct {
	ChatId uuid.UUID
}

func (s ByChatId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatId)
}

// BySenderId filters messages sent by a user
type BySenderId struct {
	SenderId uuid.UUID
}

func (s BySenderId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sender_id = ?", s.SenderId)
}

// NotDeleted filters out soft-deleted messages
type NotDeleted struct{}

func (s NotDeleted) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}
