package dto

import "time"

type CreateChatRequest struct {
	Name      *string  `json:"name"`
	IsGroup   bool     `json:"is_group"`
	MemberIds []string `json:"member_ids" validate:"required,min=1,dive,uuid"`
}

type ChatResponse struct {
	Id        string    `json:"id"`
	Name      *string   `json:"name"`
	IsGroup   bool      `json:"is_group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageResponse struct {
	Id        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	ChatId    string    `json:"chat_id"`
	SenderId  string    `json:"sender_id"`
	ReplyToId *string   `json:"reply_to_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
