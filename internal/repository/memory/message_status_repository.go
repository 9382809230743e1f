package memory

import (
	"context"
	"sync"

	"realtime-chat-be/internal/entity"
)

type MessageStatusRepository struct {
	mu      sync.RWMutex
	entries []*entity.MessageStatusEntry
}

func NewMessageStatusRepository() *MessageStatusRepository {
	return &MessageStatusRepository{}
}

func (r *MessageStatusRepository) CreateBatch(ctx context.Context, entries []*entity.MessageStatusEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *MessageStatusRepository) Entries() []*entity.MessageStatusEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entity.MessageStatusEntry(nil), r.entries...)
}
