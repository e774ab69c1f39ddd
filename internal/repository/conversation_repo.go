package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alumniportal/internal/model"
	"alumniportal/pkg/apperror"
)

// ErrConversationExists signals a lost race on conversation creation; the
// caller re-reads the winner's row.
var ErrConversationExists = errors.New("conversation already exists")

type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	// FindByPair expects participants in canonical order (model.OrderPair).
	FindByPair(ctx context.Context, userA, userB uuid.UUID) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Conversation, int64, error)
	UpdateLastMessage(ctx context.Context, id uuid.UUID, at time.Time, preview string) error

	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]model.Message, int64, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	err := dbFromContext(ctx, r.db).Create(conv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConversationExists
	}
	return err
}

func (r *conversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := dbFromContext(ctx, r.db).Preload("UserA").Preload("UserB").
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByPair(ctx context.Context, userA, userB uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := dbFromContext(ctx, r.db).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Conversation, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&model.Conversation{}).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conversations []model.Conversation
	err := query.Order("last_message_at desc nulls last").
		Limit(limit).Offset(offset).
		Preload("UserA").Preload("UserB").
		Find(&conversations).Error
	return conversations, total, err
}

func (r *conversationRepository) UpdateLastMessage(ctx context.Context, id uuid.UUID, at time.Time, preview string) error {
	return dbFromContext(ctx, r.db).Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at":      at,
			"last_message_preview": preview,
		}).Error
}

func (r *conversationRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	return dbFromContext(ctx, r.db).Create(msg).Error
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]model.Message, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&model.Message{}).
		Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []model.Message
	err := query.Order("created_at asc").Limit(limit).Offset(offset).
		Preload("Sender").Find(&messages).Error
	return messages, total, err
}

func (r *conversationRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	return dbFromContext(ctx, r.db).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true).Error
}
