package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"alumniportal/internal/event"
	"alumniportal/internal/model"
	"alumniportal/pkg/apperror"
)

func TestDispatchContactRequestSubmitted(t *testing.T) {
	repo := newFakeNotificationRepo()
	d := NewNotificationDispatcher(repo)

	target := uuid.New()
	req := &model.Request{
		ID:          uuid.New(),
		Kind:        model.KindContact,
		RequesterID: uuid.New(),
		TargetID:    target,
		Status:      model.RequestPending,
	}

	n, err := d.Dispatch(context.Background(), event.RequestSubmitted{
		Request:       req,
		Recipient:     target,
		RequesterName: "Ada Lovelace",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if n.UserID != target {
		t.Errorf("recipient = %s, want target %s", n.UserID, target)
	}
	if n.Type != model.NotifContactRequest {
		t.Errorf("type = %s, want %s", n.Type, model.NotifContactRequest)
	}
	if n.Category != model.CategoryGeneral {
		t.Errorf("category = %s, want general", n.Category)
	}
	if !strings.Contains(n.Body, "Ada Lovelace") {
		t.Errorf("body %q does not name the requester", n.Body)
	}
	if n.Status != model.NotificationUnread {
		t.Errorf("status = %s, want unread", n.Status)
	}
}

func TestDispatchIsIdempotent(t *testing.T) {
	repo := newFakeNotificationRepo()
	d := NewNotificationDispatcher(repo)

	target := uuid.New()
	ev := event.RequestSubmitted{
		Request: &model.Request{
			ID:          uuid.New(),
			Kind:        model.KindContact,
			RequesterID: uuid.New(),
			TargetID:    target,
		},
		Recipient:     target,
		RequesterName: "Ada",
	}

	if _, err := d.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	_, err := d.Dispatch(context.Background(), ev)
	if !errors.Is(err, apperror.ErrDispatchSkipped) {
		t.Fatalf("second dispatch err = %v, want ErrDispatchSkipped", err)
	}

	if got := len(repo.byUser(target)); got != 1 {
		t.Errorf("notifications stored = %d, want 1", got)
	}
}

func TestDispatchRegistrationSubmittedSkipped(t *testing.T) {
	d := NewNotificationDispatcher(newFakeNotificationRepo())

	_, err := d.Dispatch(context.Background(), event.RequestSubmitted{
		Request: &model.Request{
			ID:          uuid.New(),
			Kind:        model.KindRegistration,
			RequesterID: uuid.New(),
		},
	})
	if !errors.Is(err, apperror.ErrDispatchSkipped) {
		t.Fatalf("err = %v, want ErrDispatchSkipped", err)
	}
}

func TestDispatchRequestDecided(t *testing.T) {
	reason := "profile incomplete"

	tests := []struct {
		name     string
		kind     model.RequestKind
		status   model.RequestStatus
		reason   *string
		wantType model.NotificationType
	}{
		{"contact approved", model.KindContact, model.RequestApproved, nil, model.NotifContactAccepted},
		{"contact rejected", model.KindContact, model.RequestRejected, nil, model.NotifContactRejected},
		{"job approved", model.KindJobContact, model.RequestApproved, nil, model.NotifJobRequestApproved},
		{"job rejected", model.KindJobContact, model.RequestRejected, nil, model.NotifJobRequestRejected},
		{"registration approved", model.KindRegistration, model.RequestApproved, nil, model.NotifRegistrationApproved},
		{"registration rejected", model.KindRegistration, model.RequestRejected, &reason, model.NotifRegistrationRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewNotificationDispatcher(newFakeNotificationRepo())
			requester := uuid.New()

			n, err := d.Dispatch(context.Background(), event.RequestDecided{
				Request: &model.Request{
					ID:          uuid.New(),
					Kind:        tt.kind,
					RequesterID: requester,
					TargetID:    uuid.New(),
					Status:      tt.status,
					Reason:      tt.reason,
				},
				DeciderName: "Grace",
				Subject:     "Backend Engineer",
			})
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}

			if n.UserID != requester {
				t.Errorf("recipient = %s, want requester %s", n.UserID, requester)
			}
			if n.Type != tt.wantType {
				t.Errorf("type = %s, want %s", n.Type, tt.wantType)
			}
			if tt.reason != nil && !strings.Contains(n.Body, *tt.reason) {
				t.Errorf("body %q does not carry the reason", n.Body)
			}
		})
	}
}

func TestDispatchResourceDecided(t *testing.T) {
	reason := "needs more detail"

	tests := []struct {
		name     string
		kind     model.ResourceKind
		status   model.ResourceStatus
		reason   *string
		wantType model.NotificationType
	}{
		{"job published", model.ResourceJob, model.ResourcePublished, nil, model.NotifJob},
		{"event rejected", model.ResourceEvent, model.ResourceRejected, &reason, model.NotifEvent},
		{"bulletin published", model.ResourceBulletin, model.ResourcePublished, nil, model.NotifBulletin},
		{"article rejected", model.ResourceArticle, model.ResourceRejected, nil, model.NotifArticle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewNotificationDispatcher(newFakeNotificationRepo())
			author := uuid.New()

			n, err := d.Dispatch(context.Background(), event.ResourceDecided{
				Resource: &model.Resource{
					ID:       uuid.New(),
					Kind:     tt.kind,
					AuthorID: author,
					Title:    "Annual Meetup",
					Status:   tt.status,
					Reason:   tt.reason,
				},
			})
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}

			if n.UserID != author {
				t.Errorf("recipient = %s, want author %s", n.UserID, author)
			}
			if n.Type != tt.wantType {
				t.Errorf("type = %s, want %s", n.Type, tt.wantType)
			}
			if tt.reason != nil && !strings.Contains(n.Body, *tt.reason) {
				t.Errorf("body %q does not carry the reason", n.Body)
			}
		})
	}
}

func TestDispatchMessageSentCountsTowardMessages(t *testing.T) {
	d := NewNotificationDispatcher(newFakeNotificationRepo())
	recipient := uuid.New()

	n, err := d.Dispatch(context.Background(), event.MessageSent{
		Message: &model.Message{
			ID:             uuid.New(),
			ConversationID: uuid.New(),
			SenderID:       uuid.New(),
			Content:        "hello there",
		},
		Recipient:  recipient,
		SenderName: "Ada",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if n.Type != model.NotifMessage {
		t.Errorf("type = %s, want %s", n.Type, model.NotifMessage)
	}
	if n.Category != model.CategoryMessages {
		t.Errorf("category = %s, want messages", n.Category)
	}
}
