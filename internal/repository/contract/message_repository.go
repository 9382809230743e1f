package contract

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type MessageStatusRepository interface {
	CreateBatch(ctx context.Context, entries []*entity.MessageStatusEntry) error
}
