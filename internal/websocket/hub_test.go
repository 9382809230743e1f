package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"realtime-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(buffer int) *Client {
	return &Client{
		UserId:   uuid.New(),
		Username: "Test User",
		Send:     make(chan []byte, buffer),
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			out = append(out, data)
		default:
			return out
		}
	}
}

func TestHubJoinSendLeave(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatId := uuid.New()

	a := newTestClient(8)
	b := newTestClient(8)
	hub.Join(chatId, a)
	hub.Join(chatId, b)
	assert.Equal(t, 2, hub.Count(chatId))

	hub.SendToChat(chatId, ValidationErrorEvent{Type: EventValidationError, Message: "hello"})

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)

	hub.Leave(chatId, a)
	assert.Equal(t, 1, hub.Count(chatId))

	hub.SendToChat(chatId, ValidationErrorEvent{Type: EventValidationError, Message: "again"})
	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatId := uuid.New()

	a := newTestClient(8)
	hub.Join(chatId, a)
	hub.Join(chatId, a)
	assert.Equal(t, 1, hub.Count(chatId))

	hub.SendToChat(chatId, ValidationErrorEvent{Type: EventValidationError, Message: "once"})
	assert.Len(t, drain(a), 1)
}

func TestHubLeaveWithoutJoinIsNoOp(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatId := uuid.New()

	a := newTestClient(8)
	b := newTestClient(8)
	hub.Join(chatId, b)

	// Never joined; must not panic or affect b.
	hub.Leave(chatId, a)
	assert.Equal(t, 1, hub.Count(chatId))

	// Double leave is safe too.
	hub.Leave(chatId, b)
	hub.Leave(chatId, b)
	assert.Equal(t, 0, hub.Count(chatId))
}

func TestHubSendDoesNotCrossChats(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatA := uuid.New()
	chatB := uuid.New()

	a := newTestClient(8)
	b := newTestClient(8)
	hub.Join(chatA, a)
	hub.Join(chatB, b)

	hub.SendToChat(chatA, ValidationErrorEvent{Type: EventValidationError, Message: "only a"})

	assert.Len(t, drain(a), 1)
	assert.Empty(t, drain(b))
}

func TestHubSendToEmptyChat(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())

	// Must not panic.
	hub.SendToChat(uuid.New(), ValidationErrorEvent{Type: EventValidationError, Message: "void"})
}

func TestHubSlowConsumerIsDroppedIndependently(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatId := uuid.New()

	slow := newTestClient(1)
	fast := newTestClient(8)
	hub.Join(chatId, slow)
	hub.Join(chatId, fast)

	// First event fills slow's buffer; the second overflows it and drops
	// the slow client while fast keeps receiving.
	hub.SendToChat(chatId, ValidationErrorEvent{Type: EventValidationError, Message: "one"})
	hub.SendToChat(chatId, ValidationErrorEvent{Type: EventValidationError, Message: "two"})

	assert.Equal(t, 1, hub.Count(chatId))
	assert.Len(t, drain(fast), 2)
}

func TestHubSendToClientClosedMidBroadcastDoesNotPanic(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatId := uuid.New()

	a := newTestClient(8)
	b := newTestClient(8)
	hub.Join(chatId, a)
	hub.Join(chatId, b)

	// The state a racing teardown leaves behind: a's channel is closed but
	// a broadcast snapshot taken just before still holds the client.
	a.closeSend()

	assert.NotPanics(t, func() {
		hub.SendToChat(chatId, ValidationErrorEvent{Type: EventValidationError, Message: "racing"})
	})
	assert.Len(t, drain(b), 1, "delivery to the rest of the room is unaffected")
}

func TestHubConcurrentBroadcastJoinLeave(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatId := uuid.New()

	// Broadcasts interleave with join/leave and slow-consumer drops across
	// goroutines; any send landing on a closed channel would panic here.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := newTestClient(1)
				hub.Join(chatId, c)
				hub.SendToChat(chatId, ValidationErrorEvent{Type: EventValidationError, Message: "stress"})
				hub.Leave(chatId, c)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Count(chatId))
}

func TestHubEventSerialization(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	chatId := uuid.New()
	userId := uuid.New()

	a := newTestClient(8)
	hub.Join(chatId, a)

	hub.SendToChat(chatId, TypingStatusEvent{
		Type:     EventTypingStatus,
		UserId:   userId,
		Username: "Alice Doe",
		IsTyping: true,
	})

	frames := drain(a)
	require.Len(t, frames, 1)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(frames[0], &decoded))
	assert.Equal(t, EventTypingStatus, decoded["type"])
	assert.Equal(t, userId.String(), decoded["user_id"])
	assert.Equal(t, "Alice Doe", decoded["username"])
	assert.Equal(t, true, decoded["is_typing"])
}
