package contract

import (
	"context"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat, members []*entity.ChatMember) error
	Exists(ctx context.Context, chatId uuid.UUID) (bool, error)
	IsMember(ctx context.Context, chatId, userId uuid.UUID) (bool, error)
	FindById(ctx context.Context, chatId uuid.UUID) (*entity.Chat, error)
	FindAllByUserId(ctx context.Context, userId uuid.UUID) ([]*entity.Chat, error)
	FindMembers(ctx context.Context, chatId uuid.UUID) ([]*entity.ChatMember, error)
}
