package implementation

import (
	"context"
	"errors"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/mapper"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRepository(db *gorm.DB) contract.ChatRepository {
	return &ChatRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *entity.Chat, members []*entity.ChatMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := r.mapper.ChatToModel(chat)
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		*chat = *r.mapper.ChatToEntity(m)

		memberModels := make([]*model.ChatMember, len(members))
		for i, mem := range members {
			mem.ChatId = chat.Id
			memberModels[i] = r.mapper.ChatMemberToModel(mem)
		}
		if err := tx.Create(memberModels).Error; err != nil {
			return err
		}
		for i, mm := range memberModels {
			*members[i] = *r.mapper.ChatMemberToEntity(mm)
		}
		return nil
	})
}

func (r *ChatRepositoryImpl) Exists(ctx context.Context, chatId uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Chat{}).Where("id = ?", chatId).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ChatRepositoryImpl) IsMember(ctx context.Context, chatId, userId uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatId, userId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ChatRepositoryImpl) FindById(ctx context.Context, chatId uuid.UUID) (*entity.Chat, error) {
	var m model.Chat
	if err := r.db.WithContext(ctx).First(&m, "id = ?", chatId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatToEntity(&m), nil
}

func (r *ChatRepositoryImpl) FindAllByUserId(ctx context.Context, userId uuid.UUID) ([]*entity.Chat, error) {
	var models []*model.Chat
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chat_members.user_id = ?", userId).
		Order("chats.created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	chats := make([]*entity.Chat, len(models))
	for i, m := range models {
		chats[i] = r.mapper.ChatToEntity(m)
	}
	return chats, nil
}

func (r *ChatRepositoryImpl) FindMembers(ctx context.Context, chatId uuid.UUID) ([]*entity.ChatMember, error) {
	var models []*model.ChatMember
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatId).
		Order("joined_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	members := make([]*entity.ChatMember, len(models))
	for i, m := range models {
		members[i] = r.mapper.ChatMemberToEntity(m)
	}
	return members, nil
}
