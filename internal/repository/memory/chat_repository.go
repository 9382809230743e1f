package memory

import (
	"context"
	"sync"
	"time"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

// ChatRepository is a map-backed implementation of contract.ChatRepository
// used by unit tests.
type ChatRepository struct {
	mu      sync.RWMutex
	chats   map[uuid.UUID]*entity.Chat
	members map[uuid.UUID][]*entity.ChatMember
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{
		chats:   make(map[uuid.UUID]*entity.Chat),
		members: make(map[uuid.UUID][]*entity.ChatMember),
	}
}

func (r *ChatRepository) Create(ctx context.Context, chat *entity.Chat, members []*entity.ChatMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if chat.Id == uuid.Nil {
		chat.Id = uuid.New()
	}
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	r.chats[chat.Id] = chat

	for _, m := range members {
		if m.Id == uuid.Nil {
			m.Id = uuid.New()
		}
		m.ChatId = chat.Id
		m.JoinedAt = now
		r.members[chat.Id] = append(r.members[chat.Id], m)
	}
	return nil
}

func (r *ChatRepository) Exists(ctx context.Context, chatId uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.chats[chatId]
	return ok, nil
}

func (r *ChatRepository) IsMember(ctx context.Context, chatId, userId uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members[chatId] {
		if m.UserId == userId {
			return true, nil
		}
	}
	return false, nil
}

func (r *ChatRepository) FindById(ctx context.Context, chatId uuid.UUID) (*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chats[chatId], nil
}

func (r *ChatRepository) FindAllByUserId(ctx context.Context, userId uuid.UUID) ([]*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var chats []*entity.Chat
	for chatId, members := range r.members {
		for _, m := range members {
			if m.UserId == userId {
				chats = append(chats, r.chats[chatId])
				break
			}
		}
	}
	return chats, nil
}

func (r *ChatRepository) FindMembers(ctx context.Context, chatId uuid.UUID) ([]*entity.ChatMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entity.ChatMember(nil), r.members[chatId]...), nil
}
