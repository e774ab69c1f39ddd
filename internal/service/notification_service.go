package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"alumniportal/internal/config"
	"alumniportal/internal/dto"
	"alumniportal/internal/model"
	"alumniportal/internal/repository"
)

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, filter dto.NotificationFilter) ([]model.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Archive(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	UnreadCounts(ctx context.Context, userID uuid.UUID) (*dto.UnreadCountResponse, error)
	// EchoEmail sends a best-effort mail copy of a freshly dispatched
	// notification. Call it after the owning transaction has committed;
	// a nil notification is a no-op.
	EchoEmail(ctx context.Context, n *model.Notification)
}

type notificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	mailer        Mailer
	cfg           *config.Config
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	mailer Mailer,
	cfg *config.Config,
) NotificationService {
	return &notificationService{
		notifications: notifications,
		users:         users,
		mailer:        mailer,
		cfg:           cfg,
	}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, filter dto.NotificationFilter) ([]model.Notification, int64, error) {
	filter.Normalize()
	return s.notifications.GetByUserID(ctx, userID,
		model.NotificationStatus(filter.Status), model.NotificationType(filter.Type),
		filter.Limit, filter.Offset())
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notifications.MarkAsRead(ctx, id, userID, time.Now().UTC())
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.notifications.MarkAllAsRead(ctx, userID, time.Now().UTC())
}

func (s *notificationService) Archive(ctx context.Context, id, userID uuid.UUID) error {
	return s.notifications.Archive(ctx, id, userID)
}

func (s *notificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.notifications.Delete(ctx, id, userID)
}

// UnreadCounts recomputes both badge counters from the notification rows, so
// a counter can never drift from the list it summarizes.
func (s *notificationService) UnreadCounts(ctx context.Context, userID uuid.UUID) (*dto.UnreadCountResponse, error) {
	general, err := s.notifications.CountUnread(ctx, userID, model.CategoryGeneral)
	if err != nil {
		return nil, err
	}
	messages, err := s.notifications.CountUnread(ctx, userID, model.CategoryMessages)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{
		General:             general,
		Messages:            messages,
		PollIntervalSeconds: int(s.cfg.NotificationPollInterval.Seconds()),
	}, nil
}

func (s *notificationService) EchoEmail(ctx context.Context, n *model.Notification) {
	if n == nil || s.mailer == nil {
		return
	}

	recipient, err := s.users.FindByID(ctx, n.UserID)
	if err != nil {
		log.Printf("email echo: failed to load recipient %s: %v", n.UserID, err)
		return
	}

	if err := s.mailer.SendNotification(ctx, recipient.Email, n); err != nil {
		log.Printf("email echo: failed to send notification %s: %v", n.ID, err)
		return
	}

	if err := s.notifications.MarkEmailSent(ctx, n.ID, time.Now().UTC()); err != nil {
		log.Printf("email echo: failed to record delivery for %s: %v", n.ID, err)
	}
}
