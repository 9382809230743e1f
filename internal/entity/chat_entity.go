package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID
	Name      *string
	IsGroup   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ChatMember struct {
	Id       uuid.UUID
	ChatId   uuid.UUID
	UserId   uuid.UUID
	JoinedAt time.Time
}
