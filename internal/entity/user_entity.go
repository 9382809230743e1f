package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is read-only for the chat core; account lifecycle lives elsewhere.
type User struct {
	Id        uuid.UUID
	Email     string
	FullName  string
	AvatarURL *string
	CreatedAt time.Time
}
