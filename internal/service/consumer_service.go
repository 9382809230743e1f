package service

import (
	"context"
	"encoding/json"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ConsumerService records per-recipient delivery status for persisted
// messages. It runs off the in-process bus so the hot broadcast path never
// waits on these writes. At-most-once: a failed batch is logged, not retried.
type ConsumerService struct {
	subscriber message.Subscriber
	chatRepo   contract.ChatRepository
	statusRepo contract.MessageStatusRepository
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	chatRepo contract.ChatRepository,
	statusRepo contract.MessageStatusRepository,
	log logger.ILogger,
) *ConsumerService {
	return &ConsumerService{
		subscriber: subscriber,
		chatRepo:   chatRepo,
		statusRepo: statusRepo,
		logger:     log,
	}
}

// Consume blocks until the context is cancelled or the subscription closes.
func (s *ConsumerService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, TopicMessageCreated)
	if err != nil {
		return err
	}

	for msg := range messages {
		s.handle(ctx, msg)
		msg.Ack()
	}
	return nil
}

func (s *ConsumerService) handle(ctx context.Context, msg *message.Message) {
	var evt MessageCreatedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		s.logger.Warn("ConsumerService", "Malformed message.created payload", map[string]interface{}{"error": err.Error()})
		return
	}

	members, err := s.chatRepo.FindMembers(ctx, evt.ChatId)
	if err != nil {
		s.logger.Error("ConsumerService", "Failed to load chat members", map[string]interface{}{"chat_id": evt.ChatId, "error": err.Error()})
		return
	}

	var entries []*entity.MessageStatusEntry
	for _, member := range members {
		if member.UserId == evt.SenderId {
			continue
		}
		entries = append(entries, &entity.MessageStatusEntry{
			Id:        uuid.New(),
			MessageId: evt.MessageId,
			UserId:    member.UserId,
			Status:    entity.MessageStatusSent,
		})
	}

	if err := s.statusRepo.CreateBatch(ctx, entries); err != nil {
		s.logger.Error("ConsumerService", "Failed to record delivery statuses", map[string]interface{}{"message_id": evt.MessageId, "error": err.Error()})
	}
}
