package model

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      *string   `gorm:"type:varchar(255)"`
	IsGroup   bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Chat) TableName() string {
	return "chats"
}

type ChatMember struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatId   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_member"`
	UserId   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_member"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMember) TableName() string {
	return "chat_members"
}
