package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifJob      NotificationType = "job"
	NotifEvent    NotificationType = "event"
	NotifBulletin NotificationType = "bulletin"
	NotifArticle  NotificationType = "article"
	NotifMessage  NotificationType = "new_message"
	NotifSystem   NotificationType = "system"

	NotifRegistrationApproved NotificationType = "registration_approved"
	NotifRegistrationRejected NotificationType = "registration_rejected"

	NotifContactRequest  NotificationType = "contact_request"
	NotifContactAccepted NotificationType = "contact_accepted"
	NotifContactRejected NotificationType = "contact_rejected"

	NotifJobRequest         NotificationType = "job_request"
	NotifJobRequestApproved NotificationType = "job_request_approved"
	NotifJobRequestRejected NotificationType = "job_request_rejected"
)

type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "unread"
	NotificationRead     NotificationStatus = "read"
	NotificationArchived NotificationStatus = "archived"
)

// NotificationCategory splits unread badges into two independent counters:
// direct messages and everything else.
type NotificationCategory string

const (
	CategoryGeneral  NotificationCategory = "general"
	CategoryMessages NotificationCategory = "messages"
)

// CategoryOf returns the badge category a notification type counts toward.
func CategoryOf(t NotificationType) NotificationCategory {
	if t == NotifMessage {
		return CategoryMessages
	}
	return CategoryGeneral
}

// Notification is a delivery record addressed to exactly one recipient.
// Created only by the dispatcher; mutated only by the recipient.
type Notification struct {
	ID       uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID            `gorm:"type:uuid;not null;index" json:"user_id"`
	Type     NotificationType     `gorm:"type:varchar(40);not null" json:"type"`
	Category NotificationCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	Title    string               `gorm:"type:varchar(200);not null" json:"title"`
	Body     string               `gorm:"type:text;not null" json:"body"`

	RelatedType string    `gorm:"type:varchar(50)" json:"related_type,omitempty"`
	RelatedID   uuid.UUID `gorm:"type:uuid" json:"related_id,omitempty"`
	ActionURL   string    `gorm:"type:varchar(500)" json:"action_url,omitempty"`

	// DedupKey is the idempotency token derived from the triggering event.
	// The unique index is the authority that re-processing an event cannot
	// create a second notification.
	DedupKey string `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`

	Status NotificationStatus `gorm:"type:varchar(20);not null;default:unread;index" json:"status"`
	ReadAt *time.Time         `json:"read_at,omitempty"`

	IsEmailSent bool       `gorm:"default:false" json:"is_email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
