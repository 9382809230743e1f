package mapper

import (
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	return &entity.Chat{
		Id:        c.Id,
		Name:      c.Name,
		IsGroup:   c.IsGroup,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	return &model.Chat{
		Id:        c.Id,
		Name:      c.Name,
		IsGroup:   c.IsGroup,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ChatMapper) ChatMemberToEntity(c *model.ChatMember) *entity.ChatMember {
	return &entity.ChatMember{
		Id:       c.Id,
		ChatId:   c.ChatId,
		UserId:   c.UserId,
		JoinedAt: c.JoinedAt,
	}
}

func (m *ChatMapper) ChatMemberToModel(c *entity.ChatMember) *model.ChatMember {
	return &model.ChatMember{
		Id:       c.Id,
		ChatId:   c.ChatId,
		UserId:   c.UserId,
		JoinedAt: c.JoinedAt,
	}
}

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	return &entity.Message{
		Id:        msg.Id,
		Type:      msg.Type,
		Content:   msg.Content,
		ChatId:    msg.ChatId,
		SenderId:  msg.SenderId,
		ReplyToId: msg.ReplyToId,
		Media:     msg.Media,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
		DeletedAt: msg.DeletedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	var media datatypes.JSONMap
	if msg.Media != nil {
		media = datatypes.JSONMap(msg.Media)
	}
	return &model.Message{
		Id:        msg.Id,
		Type:      msg.Type,
		Content:   msg.Content,
		ChatId:    msg.ChatId,
		SenderId:  msg.SenderId,
		ReplyToId: msg.ReplyToId,
		Media:     media,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
		DeletedAt: msg.DeletedAt,
	}
}

func (m *ChatMapper) UserToEntity(u *model.User) *entity.User {
	return &entity.User{
		Id:        u.Id,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

func (m *ChatMapper) StatusToModel(s *entity.MessageStatusEntry) *model.MessageStatusEntry {
	return &model.MessageStatusEntry{
		Id:        s.Id,
		MessageId: s.MessageId,
		UserId:    s.UserId,
		Status:    s.Status,
		UpdatedAt: s.UpdatedAt,
	}
}
