package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"realtime-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "chat_events"

// Hub maps each chat id to the set of currently connected clients and
// fans events out to them. It is constructed once in the bootstrap
// container and injected into every session.
type Hub struct {
	// Rooms map: ChatID -> set of clients
	rooms map[uuid.UUID]map[*Client]struct{}

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance relay (optional)
	rdb *redis.Client

	// instanceId lets the relay subscriber skip events this instance
	// published itself; they were already delivered locally.
	instanceId string

	logger logger.ILogger
}

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	ChatId  uuid.UUID       `json:"chat_id"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

// Run starts the Redis relay subscriber when Redis is configured. It blocks,
// so callers run it in its own goroutine.
func (h *Hub) Run() {
	if h.rdb == nil {
		return
	}
	h.subscribeToRelay()
}

// Join adds the client to the chat's room. Idempotent.
func (h *Hub) Join(chatId uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[chatId]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[chatId] = room
	}
	room[client] = struct{}{}
}

// Leave removes the client from the chat's room and closes its send channel.
// A no-op when the client is not registered, so teardown paths can call it
// unconditionally.
func (h *Hub) Leave(chatId uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[chatId]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	client.closeSend()
	if len(room) == 0 {
		delete(h.rooms, chatId)
	}
}

// Count returns the number of clients currently joined to the chat.
func (h *Hub) Count(chatId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatId])
}

// SendToChat delivers the event to every client in the chat's room at the
// time of the call. Delivery per client is independent: a client whose send
// buffer is full is dropped from the room without affecting the others.
func (h *Hub) SendToChat(chatId uuid.UUID, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal event", map[string]interface{}{"chat_id": chatId, "error": err.Error()})
		return
	}

	h.deliverLocal(chatId, data)

	if h.rdb != nil {
		envelope, _ := json.Marshal(relayEnvelope{
			Origin:  h.instanceId,
			ChatId:  chatId,
			Payload: data,
		})
		if err := h.rdb.Publish(context.Background(), relayChannel, envelope).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to relay", map[string]interface{}{"chat_id": chatId, "error": err.Error()})
		}
	}
}

func (h *Hub) deliverLocal(chatId uuid.UUID, data []byte) {
	// Snapshot the room so no lock is held while pushing to send buffers.
	h.mu.RLock()
	room := h.rooms[chatId]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		// trySend is serialized with closeSend, so a client torn down
		// between the snapshot and this push is refused, not panicked on.
		if !client.trySend(data) {
			h.logger.Warn("Hub", "Client send buffer full or closed, dropping client", map[string]interface{}{"chat_id": chatId, "user_id": client.UserId})
			h.Leave(chatId, client)
		}
	}
}

func (h *Hub) subscribeToRelay() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Malformed relay payload", map[string]interface{}{"error": err.Error()})
			continue
		}
		if envelope.Origin == h.instanceId {
			continue
		}
		h.deliverLocal(envelope.ChatId, envelope.Payload)
	}
}
