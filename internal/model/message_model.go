package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Message struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Type      string     `gorm:"type:varchar(10);not null;default:'text'"`
	Content   string     `gorm:"type:text"`
	ChatId    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SenderId  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ReplyToId *uuid.UUID `gorm:"type:uuid"`
	Media     datatypes.JSONMap
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	DeletedAt *time.Time
}

func (Message) TableName() string {
	return "messages"
}

type MessageStatusEntry struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_message_status"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_message_status"`
	Status    string    `gorm:"type:varchar(20);not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (MessageStatusEntry) TableName() string {
	return "message_statuses"
}
