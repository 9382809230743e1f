package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"
	"realtime-chat-be/pkg/events"
	pktNats "realtime-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// TopicMessageCreated is the in-process bus topic fired after a message is
// persisted. The delivery status consumer subscribes to it.
const TopicMessageCreated = "message.created"

var ErrUserNotFound = errors.New("user not found")

// MessageCreatedEvent is the bus payload for TopicMessageCreated.
type MessageCreatedEvent struct {
	MessageId uuid.UUID `json:"message_id"`
	ChatId    uuid.UUID `json:"chat_id"`
	SenderId  uuid.UUID `json:"sender_id"`
}

type ChatService struct {
	chatRepo    contract.ChatRepository
	messageRepo contract.MessageRepository
	userRepo    contract.UserRepository
	bus         message.Publisher
	natsPub     *pktNats.Publisher
	logger      logger.ILogger
}

func NewChatService(
	chatRepo contract.ChatRepository,
	messageRepo contract.MessageRepository,
	userRepo contract.UserRepository,
	bus message.Publisher,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		bus:         bus,
		natsPub:     natsPub,
		logger:      log,
	}
}

// ChatExists reflects the store's current state; no caching, so a deleted
// chat is rejected on the next check.
func (s *ChatService) ChatExists(ctx context.Context, chatId uuid.UUID) (bool, error) {
	return s.chatRepo.Exists(ctx, chatId)
}

// IsMember is the sole authorization predicate for joining a chat.
func (s *ChatService) IsMember(ctx context.Context, chatId, userId uuid.UUID) (bool, error) {
	return s.chatRepo.IsMember(ctx, chatId, userId)
}

func (s *ChatService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateMessage persists a new message and announces it on the event bus.
// Store errors propagate to the caller; they are not retried here.
func (s *ChatService) CreateMessage(ctx context.Context, senderId, chatId uuid.UUID, content string, replyToId *uuid.UUID) (*entity.Message, error) {
	now := time.Now().UTC()
	msg := &entity.Message{
		Id:        uuid.New(),
		Type:      entity.MessageTypeText,
		Content:   content,
		ChatId:    chatId,
		SenderId:  senderId,
		ReplyToId: replyToId,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.announceMessage(ctx, msg)

	return msg, nil
}

// announceMessage publishes message.created to the in-process bus and, when
// NATS is configured, to the external chat.message.created subject. Both are
// best-effort; the message is already durable at this point.
func (s *ChatService) announceMessage(ctx context.Context, msg *entity.Message) {
	payload, err := json.Marshal(MessageCreatedEvent{
		MessageId: msg.Id,
		ChatId:    msg.ChatId,
		SenderId:  msg.SenderId,
	})
	if err != nil {
		s.logger.Error("ChatService", "Failed to marshal message.created payload", map[string]interface{}{"error": err.Error()})
		return
	}

	if s.bus != nil {
		busMsg := message.NewMessage(watermill.NewUUID(), payload)
		if err := s.bus.Publish(TopicMessageCreated, busMsg); err != nil {
			s.logger.Warn("ChatService", "Failed to publish message.created to bus", map[string]interface{}{"message_id": msg.Id, "error": err.Error()})
		}
	}

	if s.natsPub != nil {
		evt := events.BaseEvent{
			Type: "message.created",
			Data: map[string]interface{}{
				"message_id": msg.Id.String(),
				"chat_id":    msg.ChatId.String(),
				"sender_id":  msg.SenderId.String(),
				"created_at": msg.CreatedAt.Format(time.RFC3339),
			},
			OccurredAt: msg.CreatedAt,
		}
		if err := s.natsPub.Publish(ctx, evt); err != nil {
			s.logger.Warn("ChatService", "Failed to publish message.created to NATS", map[string]interface{}{"message_id": msg.Id, "error": err.Error()})
		}
	}
}

// GetMessages returns a chat's history, newest first.
func (s *ChatService) GetMessages(ctx context.Context, chatId uuid.UUID, limit, offset int) ([]*entity.Message, int64, error) {
	specs := []specification.Specification{
		specification.ByChatId{ChatId: chatId},
		specification.NotDeleted{},
	}

	total, err := s.messageRepo.Count(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}

	messages, err := s.messageRepo.FindAll(ctx, append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)...)
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (s *ChatService) ListChats(ctx context.Context, userId uuid.UUID) ([]*entity.Chat, error) {
	return s.chatRepo.FindAllByUserId(ctx, userId)
}

// CreateChat creates a chat with the creator and the given users as members.
func (s *ChatService) CreateChat(ctx context.Context, creatorId uuid.UUID, name *string, isGroup bool, memberIds []uuid.UUID) (*entity.Chat, error) {
	chat := &entity.Chat{
		Id:      uuid.New(),
		Name:    name,
		IsGroup: isGroup,
	}

	seen := map[uuid.UUID]bool{creatorId: true}
	members := []*entity.ChatMember{{Id: uuid.New(), UserId: creatorId}}
	for _, id := range memberIds {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, &entity.ChatMember{Id: uuid.New(), UserId: id})
	}

	if err := s.chatRepo.Create(ctx, chat, members); err != nil {
		return nil, err
	}
	return chat, nil
}
