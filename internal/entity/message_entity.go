package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeText  = "text"
	MessageTypeEmoji = "emoji"
	MessageTypePhoto = "photo"
	MessageTypeVideo = "video"
	MessageTypeAudio = "audio"
)

type Message struct {
	Id        uuid.UUID
	Type      string
	Content   string
	ChatId    uuid.UUID
	SenderId  uuid.UUID
	ReplyToId *uuid.UUID
	// Media holds attachment metadata for non-text messages (dimensions,
	// duration, storage key). Empty for text.
	Media     map[string]interface{}
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

const (
	MessageStatusSent      = "SENT"
	MessageStatusDelivered = "DELIVERED"
	MessageStatusRead      = "READ"
)

// MessageStatusEntry tracks per-recipient delivery state of a message.
type MessageStatusEntry struct {
	Id        uuid.UUID
	MessageId uuid.UUID
	UserId    uuid.UUID
	Status    string
	UpdatedAt time.Time
}
