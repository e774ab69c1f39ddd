// Package event defines the domain events the notification dispatcher
// consumes. Every event derives a stable idempotency key so that retried
// processing cannot fan out twice.
package event

import (
	"github.com/google/uuid"

	"alumniportal/internal/model"
)

type Event interface {
	// DedupKey uniquely identifies the (event, recipient) pair. Dispatching
	// two events with the same key creates at most one notification.
	DedupKey() string
}

// RequestSubmitted fires when a request enters pending. Recipient is the
// party that has to decide: the target member for contact requests, the job
// author for job contact requests.
type RequestSubmitted struct {
	Request       *model.Request
	Recipient     uuid.UUID
	RequesterName string
	// Subject carries the job title for job contact requests.
	Subject string
}

func (e RequestSubmitted) DedupKey() string {
	return e.Request.ID.String() + "_submitted"
}

// RequestDecided fires when a request transitions out of pending. The
// recipient is always the requester.
type RequestDecided struct {
	Request     *model.Request
	DeciderName string
	Subject     string
}

func (e RequestDecided) DedupKey() string {
	return e.Request.ID.String() + "_" + string(e.Request.Status)
}

// ResourceDecided fires when an admin approves or rejects submitted content.
// The recipient is the author.
type ResourceDecided struct {
	Resource *model.Resource
}

func (e ResourceDecided) DedupKey() string {
	return e.Resource.ID.String() + "_" + string(e.Resource.Status)
}

// MessageSent fires when a direct message lands in a conversation. The
// recipient is the other participant.
type MessageSent struct {
	Message    *model.Message
	Recipient  uuid.UUID
	SenderName string
}

func (e MessageSent) DedupKey() string {
	return e.Message.ID.String() + "_message"
}
