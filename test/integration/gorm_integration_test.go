package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/implementation"
	"realtime-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	chatRepo := implementation.NewChatRepository(gormDB)
	messageRepo := implementation.NewMessageRepository(gormDB)

	t.Run("Chat existence and membership round trip", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		name := "integration-chat"
		chat := &entity.Chat{Id: uuid.New(), Name: &name, IsGroup: true}
		members := []*entity.ChatMember{{Id: uuid.New(), UserId: userId}}

		// Requires a users row when FK constraints are enforced; the test
		// schema created by cmd/migrate has none on chat_members.user_id.
		require.NoError(t, chatRepo.Create(ctx, chat, members))

		exists, err := chatRepo.Exists(ctx, chat.Id)
		require.NoError(t, err)
		assert.True(t, exists)

		member, err := chatRepo.IsMember(ctx, chat.Id, userId)
		require.NoError(t, err)
		assert.True(t, member)

		member, err = chatRepo.IsMember(ctx, chat.Id, uuid.New())
		require.NoError(t, err)
		assert.False(t, member)
	})

	t.Run("Message create and count", func(t *testing.T) {
		ctx := context.Background()

		msg := &entity.Message{
			Id:       uuid.New(),
			Type:     entity.MessageTypeText,
			Content:  "integration hello",
			ChatId:   uuid.New(),
			SenderId: uuid.New(),
		}
		require.NoError(t, messageRepo.Create(ctx, msg))

		found, err := messageRepo.FindById(ctx, msg.Id)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "integration hello", found.Content)
	})
}
