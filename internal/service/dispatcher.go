package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"alumniportal/internal/event"
	"alumniportal/internal/model"
	"alumniportal/internal/repository"
	"alumniportal/pkg/apperror"
)

// NotificationDispatcher converts domain events into persisted notification
// records, exactly once per event. It is safe to call more than once for the
// same event: the dedup key pre-check plus the unique index make the second
// attempt surface apperror.ErrDispatchSkipped instead of a duplicate row.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, ev event.Event) (*model.Notification, error)
}

type notificationDispatcher struct {
	repo repository.NotificationRepository
}

func NewNotificationDispatcher(repo repository.NotificationRepository) NotificationDispatcher {
	return &notificationDispatcher{repo: repo}
}

func (d *notificationDispatcher) Dispatch(ctx context.Context, ev event.Event) (*model.Notification, error) {
	notification, err := buildNotification(ev)
	if err != nil {
		return nil, err
	}

	// Pre-check for the friendly path; the unique index on dedup_key is the
	// authority when two dispatches race.
	exists, err := d.repo.ExistsByDedupKey(ctx, notification.DedupKey)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.ErrDispatchSkipped
	}

	if err := d.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// buildNotification is the static event -> (recipient, type, content) table.
// The switches are exhaustive over the closed kind enums.
func buildNotification(ev event.Event) (*model.Notification, error) {
	switch e := ev.(type) {
	case event.RequestSubmitted:
		return buildSubmittedNotification(e)
	case event.RequestDecided:
		return buildDecidedNotification(e)
	case event.ResourceDecided:
		return buildResourceNotification(e)
	case event.MessageSent:
		return newNotification(e.Recipient, model.NotifMessage, "New message",
			fmt.Sprintf("%s sent you a message: %s", e.SenderName, e.Message.Preview()),
			"conversation", e.Message.ConversationID,
			"/messages/"+e.Message.ConversationID.String(), e.DedupKey()), nil
	}
	return nil, fmt.Errorf("unknown event type %T", ev)
}

func buildSubmittedNotification(e event.RequestSubmitted) (*model.Notification, error) {
	req := e.Request
	switch req.Kind {
	case model.KindContact:
		return newNotification(e.Recipient, model.NotifContactRequest, "New contact request",
			fmt.Sprintf("%s sent you a contact request", e.RequesterName),
			"contact_request", req.ID,
			"/directory?tab=received", e.DedupKey()), nil
	case model.KindJobContact:
		return newNotification(e.Recipient, model.NotifJobRequest, "New job contact request",
			fmt.Sprintf("%s wants to talk about your job posting %q", e.RequesterName, e.Subject),
			"job_request", req.ID,
			"/jobs/"+req.TargetID.String()+"/requests", e.DedupKey()), nil
	case model.KindRegistration:
		// Registrations land in the admin review queue; no single recipient.
		return nil, apperror.ErrDispatchSkipped
	}
	return nil, fmt.Errorf("unknown request kind %q", req.Kind)
}

func buildDecidedNotification(e event.RequestDecided) (*model.Notification, error) {
	req := e.Request
	approved := req.Status == model.RequestApproved

	var (
		notifType model.NotificationType
		title     string
		body      string
		actionURL string
	)

	switch req.Kind {
	case model.KindContact:
		if approved {
			notifType = model.NotifContactAccepted
			title = "Contact request accepted"
			body = fmt.Sprintf("%s accepted your contact request", e.DeciderName)
			actionURL = "/directory/" + req.TargetID.String()
		} else {
			notifType = model.NotifContactRejected
			title = "Contact request declined"
			body = fmt.Sprintf("%s declined your contact request", e.DeciderName)
			actionURL = "/directory"
		}
	case model.KindJobContact:
		if approved {
			notifType = model.NotifJobRequestApproved
			title = "Job contact request accepted"
			body = fmt.Sprintf("Your request about %q was accepted", e.Subject)
		} else {
			notifType = model.NotifJobRequestRejected
			title = "Job contact request declined"
			body = fmt.Sprintf("Your request about %q was declined", e.Subject)
		}
		actionURL = "/jobs/" + req.TargetID.String()
	case model.KindRegistration:
		if approved {
			notifType = model.NotifRegistrationApproved
			title = "Registration approved"
			body = "Your membership application has been approved. Welcome aboard!"
			actionURL = "/profile"
		} else {
			notifType = model.NotifRegistrationRejected
			title = "Registration rejected"
			body = "Your membership application was not approved."
		}
	default:
		return nil, fmt.Errorf("unknown request kind %q", req.Kind)
	}

	if req.Reason != nil && *req.Reason != "" {
		body += " Reason: " + *req.Reason
	}

	return newNotification(req.RequesterID, notifType, title, body,
		string(req.Kind), req.ID, actionURL, e.DedupKey()), nil
}

func buildResourceNotification(e event.ResourceDecided) (*model.Notification, error) {
	res := e.Resource

	var notifType model.NotificationType
	switch res.Kind {
	case model.ResourceJob:
		notifType = model.NotifJob
	case model.ResourceEvent:
		notifType = model.NotifEvent
	case model.ResourceBulletin:
		notifType = model.NotifBulletin
	case model.ResourceArticle:
		notifType = model.NotifArticle
	default:
		return nil, fmt.Errorf("unknown resource kind %q", res.Kind)
	}

	var title, body string
	if res.Status == model.ResourcePublished {
		title = fmt.Sprintf("Your %s was published", res.Kind)
		body = fmt.Sprintf("%q passed review and is now visible", res.Title)
	} else {
		title = fmt.Sprintf("Your %s was rejected", res.Kind)
		body = fmt.Sprintf("%q did not pass review", res.Title)
		if res.Reason != nil && *res.Reason != "" {
			body += ". Reason: " + *res.Reason
		}
	}

	return newNotification(res.AuthorID, notifType, title, body,
		string(res.Kind), res.ID,
		"/"+string(res.Kind)+"s/"+res.ID.String(), e.DedupKey()), nil
}

func newNotification(recipient uuid.UUID, notifType model.NotificationType, title, body, relatedType string, relatedID uuid.UUID, actionURL, dedupKey string) *model.Notification {
	return &model.Notification{
		UserID:      recipient,
		Type:        notifType,
		Category:    model.CategoryOf(notifType),
		Title:       title,
		Body:        body,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		ActionURL:   actionURL,
		DedupKey:    dedupKey,
		Status:      model.NotificationUnread,
	}
}
