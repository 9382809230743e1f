package handler

import (
	"time"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/ratelimit"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/service"
	internalWS "realtime-chat-be/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ChatHandler struct {
	chats          *service.ChatService
	hub            *internalWS.Hub
	limiter        ratelimit.Limiter
	typingCooldown time.Duration
	sendBufferSize int
	jwtSecret      string
	validate       *validator.Validate
	logger         logger.ILogger
}

func NewChatHandler(
	chats *service.ChatService,
	hub *internalWS.Hub,
	limiter ratelimit.Limiter,
	typingCooldown time.Duration,
	sendBufferSize int,
	jwtSecret string,
	log logger.ILogger,
) *ChatHandler {
	return &ChatHandler{
		chats:          chats,
		hub:            hub,
		limiter:        limiter,
		typingCooldown: typingCooldown,
		sendBufferSize: sendBufferSize,
		jwtSecret:      jwtSecret,
		validate:       validator.New(),
		logger:         log,
	}
}

// ServeWs runs the connection gates in order (identity, fan-out layer, chat
// existence, membership) and upgrades only when all of them pass. Gate
// failures are logged server-side; the client just sees a failed handshake.
func (h *ChatHandler) ServeWs(c *fiber.Ctx) error {
	userId, ok := h.authenticate(c)
	if !ok {
		h.logger.Warn("ChatHandler", "Unauthenticated websocket handshake rejected", map[string]interface{}{"chat_id": c.Params("chat_id")})
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if h.hub == nil {
		h.logger.Error("ChatHandler", "Broadcast hub is not initialized", nil)
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	chatId, err := uuid.Parse(c.Params("chat_id"))
	if err != nil {
		h.logger.Warn("ChatHandler", "Malformed chat id in handshake", map[string]interface{}{"chat_id": c.Params("chat_id")})
		return c.SendStatus(fiber.StatusNotFound)
	}

	exists, err := h.chats.ChatExists(c.UserContext(), chatId)
	if err != nil {
		return err
	}
	if !exists {
		h.logger.Warn("ChatHandler", "Chat does not exist", map[string]interface{}{"chat_id": chatId})
		return c.SendStatus(fiber.StatusNotFound)
	}

	member, err := h.chats.IsMember(c.UserContext(), chatId, userId)
	if err != nil {
		return err
	}
	if !member {
		h.logger.Warn("ChatHandler", "User is not a member of chat", map[string]interface{}{"chat_id": chatId, "user_id": userId})
		return c.SendStatus(fiber.StatusForbidden)
	}

	user, err := h.chats.GetUser(c.UserContext(), userId)
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		client := internalWS.NewClient(conn, user.Id, user.FullName, h.sendBufferSize)
		session := internalWS.NewSession(client, chatId, h.hub, h.chats, h.limiter, h.typingCooldown, h.logger)
		session.Run()
	})(c)
}

// authenticate extracts the verified user identity from the handshake:
// query token first (browser standard), then the Authorization header.
func (h *ChatHandler) authenticate(c *fiber.Ctx) (uuid.UUID, bool) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userId, true
}

// ListChats returns the chats the current user belongs to.
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	userId, ok := h.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	chats, err := h.chats.ListChats(c.UserContext(), userId)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	resp := make([]dto.ChatResponse, len(chats))
	for i, chat := range chats {
		resp[i] = toChatResponse(chat)
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateChat creates a chat with the current user and the listed members.
func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	userId, ok := h.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req dto.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	memberIds := make([]uuid.UUID, len(req.MemberIds))
	for i, idStr := range req.MemberIds {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
		}
		memberIds[i] = id
	}

	chat, err := h.chats.CreateChat(c.UserContext(), userId, req.Name, req.IsGroup, memberIds)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toChatResponse(chat)})
}

// GetMessages returns a chat's history, newest first, membership-checked.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userId, ok := h.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	chatId, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat id"})
	}

	member, err := h.chats.IsMember(c.UserContext(), chatId, userId)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !member {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this chat"})
	}

	// Clamp pagination: a negative or huge limit must not dump the whole
	// history in one response.
	limit := c.QueryInt("limit", 50)
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	messages, total, err := h.chats.GetMessages(c.UserContext(), chatId, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	resp := make([]dto.MessageResponse, len(messages))
	for i, msg := range messages {
		resp[i] = toMessageResponse(msg)
	}
	return c.JSON(fiber.Map{
		"data":  resp,
		"total": total,
	})
}

func (h *ChatHandler) currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	userIdStr, ok := c.Locals("user_id").(string)
	if !ok {
		if uid, ok := c.Locals("user_id").(uuid.UUID); ok {
			return uid, true
		}
		return uuid.Nil, false
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userId, true
}

func toChatResponse(chat *entity.Chat) dto.ChatResponse {
	return dto.ChatResponse{
		Id:        chat.Id.String(),
		Name:      chat.Name,
		IsGroup:   chat.IsGroup,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
}

func toMessageResponse(msg *entity.Message) dto.MessageResponse {
	var replyTo *string
	if msg.ReplyToId != nil {
		v := msg.ReplyToId.String()
		replyTo = &v
	}
	return dto.MessageResponse{
		Id:        msg.Id.String(),
		Type:      msg.Type,
		Content:   msg.Content,
		ChatId:    msg.ChatId.String(),
		SenderId:  msg.SenderId.String(),
		ReplyToId: replyTo,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
	}
}

// RegisterRoutes registers the chat routes.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	chats := router.Group("/chats")
	chats.Use(serverutils.JwtMiddleware(h.jwtSecret))
	chats.Get("/", h.ListChats)
	chats.Post("/", h.CreateChat)
	chats.Get("/:id/messages", h.GetMessages)

	// WebSocket (token carried in query or header, checked in ServeWs)
	router.Get("/ws/chat/:chat_id", h.ServeWs)
}
