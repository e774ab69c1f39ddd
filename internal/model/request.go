package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestKind is the closed set of decision-requiring entities. Invalid kinds
// are unrepresentable; every switch over RequestKind handles all three values.
type RequestKind string

const (
	// KindContact is a member asking another member for contact details.
	KindContact RequestKind = "contact_request"
	// KindJobContact is a member asking a job author to talk about a job.
	// TargetID is the job resource ID, not a user ID.
	KindJobContact RequestKind = "job_contact_request"
	// KindRegistration is a prospective member applying to join. TargetID is
	// unset; only admins may decide.
	KindRegistration RequestKind = "registration_request"
)

func (k RequestKind) Valid() bool {
	switch k {
	case KindContact, KindJobContact, KindRegistration:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Request represents one actor's ask of another, awaiting approve/reject.
// Rows are never deleted; decided requests are kept for history.
type Request struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind        RequestKind   `gorm:"type:varchar(30);not null;index:idx_requests_triple" json:"kind"`
	RequesterID uuid.UUID     `gorm:"type:uuid;not null;index:idx_requests_triple" json:"requester_id"`
	TargetID    uuid.UUID     `gorm:"type:uuid;index:idx_requests_triple" json:"target_id"`
	Message     *string       `gorm:"type:text" json:"message,omitempty"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	Reason      *string       `gorm:"type:text" json:"reason,omitempty"`
	DeciderID   *uuid.UUID    `gorm:"type:uuid" json:"decider_id,omitempty"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`

	Requester *User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
}

func (r *Request) IsPending() bool {
	return r.Status == RequestPending
}

// OutcomeStatus maps a decide outcome string to a terminal status.
func OutcomeStatus(outcome string) (RequestStatus, bool) {
	switch outcome {
	case "approved":
		return RequestApproved, true
	case "rejected":
		return RequestRejected, true
	}
	return "", false
}
