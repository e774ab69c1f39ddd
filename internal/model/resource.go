package model

import (
	"time"

	"github.com/google/uuid"
)

type ResourceKind string

const (
	ResourceJob      ResourceKind = "job"
	ResourceEvent    ResourceKind = "event"
	ResourceBulletin ResourceKind = "bulletin"
	ResourceArticle  ResourceKind = "article"
)

func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceJob, ResourceEvent, ResourceBulletin, ResourceArticle:
		return true
	}
	return false
}

type ResourceStatus string

const (
	ResourceDraft     ResourceStatus = "draft"
	ResourcePending   ResourceStatus = "pending"
	ResourcePublished ResourceStatus = "published"
	ResourceRejected  ResourceStatus = "rejected"
	ResourceArchived  ResourceStatus = "archived"
	ResourceClosed    ResourceStatus = "closed"
)

// Resource is user-submitted content requiring admin sign-off before
// visibility: a job post, event, bulletin or article.
type Resource struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind        ResourceKind   `gorm:"type:varchar(20);not null;index" json:"kind"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Body        string         `gorm:"type:text" json:"body"`
	Status      ResourceStatus `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	Reason      *string        `gorm:"type:text" json:"reason,omitempty"`
	DeciderID   *uuid.UUID     `gorm:"type:uuid" json:"decider_id,omitempty"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// CanTransition reports whether a resource may move from one status to
// another, ignoring who is asking. draft and rejected are author-editable and
// re-submittable; published can only be closed or archived.
func CanTransition(from, to ResourceStatus) bool {
	switch from {
	case ResourceDraft, ResourceRejected:
		return to == ResourcePending
	case ResourcePending:
		return to == ResourcePublished || to == ResourceRejected
	case ResourcePublished:
		return to == ResourceArchived || to == ResourceClosed
	}
	return false
}
