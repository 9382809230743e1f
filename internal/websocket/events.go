package websocket

import "github.com/google/uuid"

// Inbound frame types accepted from clients. Anything else is ignored.
const (
	EventTyping      = "typing"
	EventChatMessage = "chat_message"
)

// Outbound frame types.
const (
	EventTypingStatus    = "typing_status"
	EventValidationError = "validation_error"
)

// InboundFrame is one decoded client frame. Fields are populated depending
// on Type.
type InboundFrame struct {
	Type      string `json:"type"`
	IsTyping  bool   `json:"is_typing"`
	Content   string `json:"content"`
	ReplyToId string `json:"reply_to_id"`
}

// TypingStatusEvent is broadcast to a chat when a member starts or stops
// typing. Never persisted.
type TypingStatusEvent struct {
	Type     string    `json:"type"`
	UserId   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IsTyping bool      `json:"is_typing"`
}

// ChatMessageEvent is broadcast to a chat after a message has been
// persisted. Timestamps are RFC3339.
type ChatMessageEvent struct {
	Type      string  `json:"type"`
	Id        string  `json:"id"`
	Content   string  `json:"content"`
	Sender    string  `json:"sender"`
	ChatId    string  `json:"chat_id"`
	ReplyToId *string `json:"reply_to_id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// ValidationErrorEvent is sent back to the originating connection only.
type ValidationErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
