package main

import (
	"log"

	"realtime-chat-be/internal/config"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/pkg/database"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	err = gormDB.AutoMigrate(
		&model.User{},
		&model.Chat{},
		&model.ChatMember{},
		&model.Message{},
		&model.MessageStatusEntry{},
	)
	if err != nil {
		log.Panicf("Migration failed: %v", err)
	}

	log.Println("Migration completed")
}
