package contract

import (
	"context"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	FindById(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
