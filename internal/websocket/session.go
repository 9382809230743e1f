package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/ratelimit"
	"realtime-chat-be/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// typingRateKeyPrefix composes the throttle key with the user id, so the
// cooldown is per user across all of their connections.
const typingRateKeyPrefix = "typing_event:"

// Session owns one authorized connection for its lifetime: it decodes
// inbound frames, validates and persists durable messages, throttles
// ephemeral events, and republishes to the chat's room. It exists only
// after the handshake gates have passed.
type Session struct {
	Client *Client
	ChatId uuid.UUID

	hub            *Hub
	chats          *service.ChatService
	limiter        ratelimit.Limiter
	typingCooldown time.Duration
	logger         logger.ILogger
}

func NewSession(
	client *Client,
	chatId uuid.UUID,
	hub *Hub,
	chats *service.ChatService,
	limiter ratelimit.Limiter,
	typingCooldown time.Duration,
	log logger.ILogger,
) *Session {
	return &Session{
		Client:         client,
		ChatId:         chatId,
		hub:            hub,
		chats:          chats,
		limiter:        limiter,
		typingCooldown: typingCooldown,
		logger:         log,
	}
}

// Run registers the session with the hub and pumps the connection until it
// closes. The caller must have passed all authorization gates already.
func (s *Session) Run() {
	s.hub.Join(s.ChatId, s.Client)
	s.logger.Info("ChatSession", "User connected to chat", map[string]interface{}{
		"user_id": s.Client.UserId,
		"chat_id": s.ChatId,
	})

	go s.Client.writePump()
	s.readPump()
}

// readPump processes inbound frames one at a time: a frame is handled to
// completion, including its broadcast, before the next is read. That gives
// FIFO delivery per source without any extra ordering machinery.
func (s *Session) readPump() {
	defer func() {
		s.hub.Leave(s.ChatId, s.Client)
		s.Client.Conn.Close()
		s.logger.Info("ChatSession", "User disconnected from chat", map[string]interface{}{
			"user_id": s.Client.UserId,
			"chat_id": s.ChatId,
		})
	}()

	conn := s.Client.Conn
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("ChatSession", "Unexpected close", map[string]interface{}{"user_id": s.Client.UserId, "error": err.Error()})
			}
			break
		}

		if err := s.HandleFrame(context.Background(), raw); err != nil {
			// Store failures are fatal to the connection; the client must
			// not believe an unpersisted message went through.
			s.logger.Error("ChatSession", "Frame handling failed, closing connection", map[string]interface{}{
				"user_id": s.Client.UserId,
				"chat_id": s.ChatId,
				"error":   err.Error(),
			})
			break
		}
	}
}

// HandleFrame decodes and dispatches one inbound frame. A non-nil error
// means the connection should be torn down; validation problems are
// reported in-band and return nil.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) error {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		// Policy: malformed frames are dropped and logged, the connection
		// stays open. Matches the lenient treatment of unknown types.
		s.logger.Warn("ChatSession", "Dropping malformed frame", map[string]interface{}{"user_id": s.Client.UserId, "error": err.Error()})
		return nil
	}

	switch frame.Type {
	case EventTyping:
		s.handleTyping(ctx, frame.IsTyping)
		return nil
	case EventChatMessage:
		return s.handleChatMessage(ctx, frame.Content, frame.ReplyToId)
	default:
		s.logger.Warn("ChatSession", "Unknown message type", map[string]interface{}{"type": frame.Type, "user_id": s.Client.UserId})
		return nil
	}
}

func (s *Session) handleTyping(ctx context.Context, isTyping bool) {
	if !s.limiter.Allow(ctx, typingRateKeyPrefix+s.Client.UserId.String(), s.typingCooldown) {
		return
	}

	s.hub.SendToChat(s.ChatId, TypingStatusEvent{
		Type:     EventTypingStatus,
		UserId:   s.Client.UserId,
		Username: s.Client.Username,
		IsTyping: isTyping,
	})
}

func (s *Session) handleChatMessage(ctx context.Context, content, replyToIdStr string) error {
	if strings.TrimSpace(content) == "" {
		s.sendSelf(ValidationErrorEvent{Type: EventValidationError, Message: "Message content cannot be empty."})
		return nil
	}

	var replyToId *uuid.UUID
	if replyToIdStr != "" {
		parsed, err := uuid.Parse(replyToIdStr)
		if err != nil {
			s.sendSelf(ValidationErrorEvent{Type: EventValidationError, Message: "Invalid Message Reply Id."})
			return nil
		}
		replyToId = &parsed
	}

	msg, err := s.chats.CreateMessage(ctx, s.Client.UserId, s.ChatId, content, replyToId)
	if err != nil {
		return err
	}

	var replyTo *string
	if msg.ReplyToId != nil {
		v := msg.ReplyToId.String()
		replyTo = &v
	}

	s.hub.SendToChat(s.ChatId, ChatMessageEvent{
		Type:      EventChatMessage,
		Id:        msg.Id.String(),
		Content:   msg.Content,
		Sender:    s.Client.Username,
		ChatId:    msg.ChatId.String(),
		ReplyToId: replyTo,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		UpdatedAt: msg.UpdatedAt.Format(time.RFC3339),
	})
	return nil
}

// sendSelf pushes an event to this connection only.
func (s *Session) sendSelf(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("ChatSession", "Failed to marshal event", map[string]interface{}{"error": err.Error()})
		return
	}
	if !s.Client.trySend(data) {
		s.logger.Warn("ChatSession", "Send buffer full or closed, dropping unicast event", map[string]interface{}{"user_id": s.Client.UserId})
	}
}
