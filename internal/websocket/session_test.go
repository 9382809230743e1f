package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/ratelimit"
	"realtime-chat-be/internal/repository/memory"
	"realtime-chat-be/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	hub         *Hub
	chats       *service.ChatService
	messageRepo *memory.MessageRepository
	chatId      uuid.UUID
	alice       *entity.User
	bob         *entity.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	chatRepo := memory.NewChatRepository()
	messageRepo := memory.NewMessageRepository()
	userRepo := memory.NewUserRepository()

	alice := &entity.User{Id: uuid.New(), Email: "alice@example.com", FullName: "Alice Doe"}
	bob := &entity.User{Id: uuid.New(), Email: "bob@example.com", FullName: "Bob Roe"}
	userRepo.Add(alice)
	userRepo.Add(bob)

	chat := &entity.Chat{Id: uuid.New(), IsGroup: true}
	members := []*entity.ChatMember{
		{Id: uuid.New(), UserId: alice.Id},
		{Id: uuid.New(), UserId: bob.Id},
	}
	require.NoError(t, chatRepo.Create(context.Background(), chat, members))

	chats := service.NewChatService(chatRepo, messageRepo, userRepo, nil, nil, logger.NewNopLogger())

	return &sessionFixture{
		hub:         NewHub(nil, logger.NewNopLogger()),
		chats:       chats,
		messageRepo: messageRepo,
		chatId:      chat.Id,
		alice:       alice,
		bob:         bob,
	}
}

func (f *sessionFixture) connect(user *entity.User, limiter ratelimit.Limiter, cooldown time.Duration) (*Session, *Client) {
	client := &Client{
		UserId:   user.Id,
		Username: user.FullName,
		Send:     make(chan []byte, 8),
	}
	session := NewSession(client, f.chatId, f.hub, f.chats, limiter, cooldown, logger.NewNopLogger())
	f.hub.Join(f.chatId, client)
	return session, client
}

func decodeFrame(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestChatMessageBroadcastToAllMembers(t *testing.T) {
	f := newSessionFixture(t)
	sessionA, clientA := f.connect(f.alice, ratelimit.NewLocalLimiter(), 2*time.Second)
	_, clientB := f.connect(f.bob, ratelimit.NewLocalLimiter(), 2*time.Second)

	err := sessionA.HandleFrame(context.Background(), []byte(`{"type":"chat_message","content":"hello"}`))
	require.NoError(t, err)

	framesA := drain(clientA)
	framesB := drain(clientB)
	require.Len(t, framesA, 1, "sender receives its own message echoed back")
	require.Len(t, framesB, 1)

	decoded := decodeFrame(t, framesB[0])
	assert.Equal(t, "chat_message", decoded["type"])
	assert.Equal(t, "hello", decoded["content"])
	assert.Equal(t, "Alice Doe", decoded["sender"])
	assert.Equal(t, f.chatId.String(), decoded["chat_id"])
	assert.Nil(t, decoded["reply_to_id"])
	assert.NotEmpty(t, decoded["created_at"])

	// Freshly generated id, retrievable from the store with matching fields.
	msgId, err := uuid.Parse(decoded["id"].(string))
	require.NoError(t, err)
	stored, err := f.messageRepo.FindById(context.Background(), msgId)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "hello", stored.Content)
	assert.Equal(t, f.alice.Id, stored.SenderId)
	assert.Equal(t, entity.MessageTypeText, stored.Type)
}

func TestChatMessageEmptyContentIsRejectedUnicast(t *testing.T) {
	f := newSessionFixture(t)
	sessionA, clientA := f.connect(f.alice, ratelimit.NewLocalLimiter(), 2*time.Second)
	_, clientB := f.connect(f.bob, ratelimit.NewLocalLimiter(), 2*time.Second)

	err := sessionA.HandleFrame(context.Background(), []byte(`{"type":"chat_message","content":"   "}`))
	require.NoError(t, err)

	framesA := drain(clientA)
	require.Len(t, framesA, 1)
	decoded := decodeFrame(t, framesA[0])
	assert.Equal(t, "validation_error", decoded["type"])
	assert.Equal(t, "Message content cannot be empty.", decoded["message"])

	assert.Empty(t, drain(clientB), "validation errors never broadcast")

	count, err := f.messageRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatMessageInvalidReplyIdIsRejectedUnicast(t *testing.T) {
	f := newSessionFixture(t)
	sessionA, clientA := f.connect(f.alice, ratelimit.NewLocalLimiter(), 2*time.Second)
	_, clientB := f.connect(f.bob, ratelimit.NewLocalLimiter(), 2*time.Second)

	err := sessionA.HandleFrame(context.Background(), []byte(`{"type":"chat_message","content":"hi","reply_to_id":"not-a-uuid"}`))
	require.NoError(t, err)

	framesA := drain(clientA)
	require.Len(t, framesA, 1)
	decoded := decodeFrame(t, framesA[0])
	assert.Equal(t, "validation_error", decoded["type"])
	assert.Equal(t, "Invalid Message Reply Id.", decoded["message"])

	assert.Empty(t, drain(clientB))

	count, err := f.messageRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatMessageWithValidReplyId(t *testing.T) {
	f := newSessionFixture(t)
	sessionA, clientA := f.connect(f.alice, ratelimit.NewLocalLimiter(), 2*time.Second)

	replyTo := uuid.New()
	err := sessionA.HandleFrame(context.Background(), []byte(`{"type":"chat_message","content":"replying","reply_to_id":"`+replyTo.String()+`"}`))
	require.NoError(t, err)

	frames := drain(clientA)
	require.Len(t, frames, 1)
	decoded := decodeFrame(t, frames[0])
	assert.Equal(t, replyTo.String(), decoded["reply_to_id"])
}

func TestTypingBroadcastAndThrottle(t *testing.T) {
	f := newSessionFixture(t)
	limiter := ratelimit.NewLocalLimiter()
	sessionA, _ := f.connect(f.alice, limiter, 100*time.Millisecond)
	_, clientB := f.connect(f.bob, limiter, 100*time.Millisecond)

	typing := []byte(`{"type":"typing","is_typing":true}`)

	// Two events inside the cooldown: only the first broadcasts.
	require.NoError(t, sessionA.HandleFrame(context.Background(), typing))
	require.NoError(t, sessionA.HandleFrame(context.Background(), typing))

	frames := drain(clientB)
	require.Len(t, frames, 1)
	decoded := decodeFrame(t, frames[0])
	assert.Equal(t, "typing_status", decoded["type"])
	assert.Equal(t, f.alice.Id.String(), decoded["user_id"])
	assert.Equal(t, "Alice Doe", decoded["username"])
	assert.Equal(t, true, decoded["is_typing"])

	// After the cooldown elapses the gate opens again.
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, sessionA.HandleFrame(context.Background(), typing))
	assert.Len(t, drain(clientB), 1)
}

func TestTypingThrottleIsPerUser(t *testing.T) {
	f := newSessionFixture(t)
	limiter := ratelimit.NewLocalLimiter()
	sessionA, clientA := f.connect(f.alice, limiter, time.Second)
	sessionB, _ := f.connect(f.bob, limiter, time.Second)

	typing := []byte(`{"type":"typing","is_typing":true}`)
	require.NoError(t, sessionA.HandleFrame(context.Background(), typing))
	require.NoError(t, sessionB.HandleFrame(context.Background(), typing))

	// A sees its own event plus B's: B's throttle key is independent.
	assert.Len(t, drain(clientA), 2)
}

func TestUnknownFrameTypeIsIgnored(t *testing.T) {
	f := newSessionFixture(t)
	sessionA, clientA := f.connect(f.alice, ratelimit.NewLocalLimiter(), 2*time.Second)
	_, clientB := f.connect(f.bob, ratelimit.NewLocalLimiter(), 2*time.Second)

	err := sessionA.HandleFrame(context.Background(), []byte(`{"type":"presence","status":"online"}`))
	require.NoError(t, err)

	assert.Empty(t, drain(clientA))
	assert.Empty(t, drain(clientB))
}

func TestMalformedFrameIsDropped(t *testing.T) {
	f := newSessionFixture(t)
	sessionA, clientA := f.connect(f.alice, ratelimit.NewLocalLimiter(), 2*time.Second)

	err := sessionA.HandleFrame(context.Background(), []byte(`{not json`))
	require.NoError(t, err, "malformed frames are dropped, the connection stays open")
	assert.Empty(t, drain(clientA))
}

func TestStoreFailureIsFatalToTheOperation(t *testing.T) {
	f := newSessionFixture(t)
	sessionA, clientA := f.connect(f.alice, ratelimit.NewLocalLimiter(), 2*time.Second)
	_, clientB := f.connect(f.bob, ratelimit.NewLocalLimiter(), 2*time.Second)

	f.messageRepo.FailNextCreate = errors.New("connection reset")

	err := sessionA.HandleFrame(context.Background(), []byte(`{"type":"chat_message","content":"doomed"}`))
	require.Error(t, err)

	assert.Empty(t, drain(clientA), "no broadcast on persistence failure")
	assert.Empty(t, drain(clientB))
}
