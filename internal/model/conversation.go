package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is a channel between exactly two members, created lazily when
// a contact or job request is approved, or on first direct message.
// Participants are stored in canonical order so the (UserAID, UserBID) unique
// index holds regardless of who initiated.
type Conversation struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserAID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair" json:"user_a_id"`
	UserBID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair" json:"user_b_id"`

	// RequestID links back to the approved request that opened the channel,
	// when there is one.
	RequestID *uuid.UUID `gorm:"type:uuid" json:"request_id,omitempty"`

	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview string     `gorm:"type:varchar(200)" json:"last_message_preview,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	UserA *User `gorm:"foreignKey:UserAID" json:"user_a,omitempty"`
	UserB *User `gorm:"foreignKey:UserBID" json:"user_b,omitempty"`
}

// OtherParticipant returns the counterpart of the given member.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if userID == c.UserAID {
		return c.UserBID
	}
	return c.UserAID
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return userID == c.UserAID || userID == c.UserBID
}

// OrderPair puts two participant IDs in canonical order so that (a, b) and
// (b, a) always resolve to the same conversation row.
func OrderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// Preview shortens message content for conversation listings.
func (m *Message) Preview() string {
	const max = 200
	if len(m.Content) > max {
		return m.Content[:max-3] + "..."
	}
	return m.Content
}
