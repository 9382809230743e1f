package memory

import (
	"context"
	"sync"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*entity.User)}
}

func (r *UserRepository) Add(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Id] = user
}

func (r *UserRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[id], nil
}
