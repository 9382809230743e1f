package bootstrap

import (
	"context"
	"log"
	"time"

	"realtime-chat-be/internal/config"
	"realtime-chat-be/internal/handler"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/ratelimit"
	"realtime-chat-be/internal/repository/implementation"
	"realtime-chat-be/internal/service"
	"realtime-chat-be/internal/websocket"
	pktNats "realtime-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ChatHandler  *handler.ChatHandler
	WebSocketHub *websocket.Hub

	// Background services (exposed for main.go to run)
	ConsumerService *service.ConsumerService

	SysLogger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)

	// 2. Event bus (in-process)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS (optional, best-effort)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis
	var rdb *redis.Client
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb = redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Rate limiting falls back to local cache", err)
		rdb = nil
	}

	// Rate limiter: Redis gives a cluster-wide throttle; the local cache
	// covers single-instance deployments.
	var limiter ratelimit.Limiter
	if rdb != nil {
		limiter = ratelimit.NewRedisLimiter(rdb, wsLogger)
	} else {
		limiter = ratelimit.NewLocalLimiter()
	}

	// WebSocket hub
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Repositories
	chatRepo := implementation.NewChatRepository(db)
	messageRepo := implementation.NewMessageRepository(db)
	userRepo := implementation.NewUserRepository(db)
	statusRepo := implementation.NewMessageStatusRepository(db)

	// 5. Services
	chatService := service.NewChatService(chatRepo, messageRepo, userRepo, pubSub, natsPub, sysLogger)
	consumerService := service.NewConsumerService(pubSub, chatRepo, statusRepo, sysLogger)

	// 6. Handlers
	chatHandler := handler.NewChatHandler(
		chatService,
		wsHub,
		limiter,
		time.Duration(cfg.Chat.TypingCooldownSeconds)*time.Second,
		cfg.Chat.SendBufferSize,
		cfg.App.JwtSecret,
		wsLogger,
	)

	return &Container{
		ChatHandler:     chatHandler,
		WebSocketHub:    wsHub,
		ConsumerService: consumerService,
		SysLogger:       sysLogger,
	}
}
