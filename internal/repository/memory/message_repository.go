package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// MessageRepository is a map-backed implementation of
// contract.MessageRepository used by unit tests. Specifications are
// interpreted structurally for the subset the chat service uses.
type MessageRepository struct {
	mu       sync.RWMutex
	messages []*entity.Message

	// FailNextCreate makes the next Create call return this error, then
	// clears itself. Lets tests exercise store failure paths.
	FailNextCreate error
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNextCreate != nil {
		err := r.FailNextCreate
		r.FailNextCreate = nil
		return err
	}

	now := time.Now().UTC()
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	message.CreatedAt = now
	message.UpdatedAt = now

	stored := *message
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *MessageRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.messages {
		if m.Id == id {
			found := *m
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := r.filter(specs...)

	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "created_at" {
			sort.SliceStable(filtered, func(i, j int) bool {
				if order.Desc {
					return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
				}
				return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
			})
		}
	}

	for _, spec := range specs {
		if page, ok := spec.(specification.Pagination); ok {
			if page.Offset >= len(filtered) {
				return nil, nil
			}
			filtered = filtered[page.Offset:]
			if page.Limit < len(filtered) {
				filtered = filtered[:page.Limit]
			}
		}
	}

	return filtered, nil
}

func (r *MessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.filter(specs...))), nil
}

func (r *MessageRepository) filter(specs ...specification.Specification) []*entity.Message {
	var out []*entity.Message
	for _, m := range r.messages {
		match := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByChatId:
				if m.ChatId != s.ChatId {
					match = false
				}
			case specification.BySenderId:
				if m.SenderId != s.SenderId {
					match = false
				}
			case specification.NotDeleted:
				if m.DeletedAt != nil {
					match = false
				}
			}
		}
		if match {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out
}
