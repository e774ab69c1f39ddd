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

type NotificationRepository interface {
	// Create inserts a notification. The unique index on the dedup key makes
	// re-processing a duplicate event surface as ErrDispatchSkipped.
	Create(ctx context.Context, notification *model.Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ExistsByDedupKey(ctx context.Context, key string) (bool, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, status model.NotificationStatus, notifType model.NotificationType, limit, offset int) ([]model.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID, readAt time.Time) error
	Archive(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID, category model.NotificationCategory) (int64, error)
	MarkEmailSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	err := dbFromContext(ctx, r.db).Create(notification).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.ErrDispatchSkipped
	}
	return err
}

func (r *notificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var notification model.Notification
	err := dbFromContext(ctx, r.db).First(&notification, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) ExistsByDedupKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).Model(&model.Notification{}).
		Where("dedup_key = ?", key).Count(&count).Error
	return count > 0, err
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, status model.NotificationStatus, notifType model.NotificationType, limit, offset int) ([]model.Notification, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&model.Notification{}).
		Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if notifType != "" {
		query = query.Where("type = ?", notifType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) error {
	result := dbFromContext(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.NotificationUnread).
		Updates(map[string]interface{}{
			"status":  model.NotificationRead,
			"read_at": readAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Already read is fine; missing or foreign is not.
		var count int64
		if err := dbFromContext(ctx, r.db).Model(&model.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.ErrNotFound
		}
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID, readAt time.Time) error {
	// Single statement: the unread count and the underlying rows can never
	// disagree mid-operation.
	return dbFromContext(ctx, r.db).Model(&model.Notification{}).
		Where("user_id = ? AND status = ?", userID, model.NotificationUnread).
		Updates(map[string]interface{}{
			"status":  model.NotificationRead,
			"read_at": readAt,
		}).Error
}

func (r *notificationRepository) Archive(ctx context.Context, id, userID uuid.UUID) error {
	result := dbFromContext(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", model.NotificationArchived)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID, category model.NotificationCategory) (int64, error) {
	var count int64
	query := dbFromContext(ctx, r.db).Model(&model.Notification{}).
		Where("user_id = ? AND status = ?", userID, model.NotificationUnread)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkEmailSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return dbFromContext(ctx, r.db).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_email_sent": true,
			"email_sent_at": sentAt,
		}).Error
}
