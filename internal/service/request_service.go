package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"alumniportal/internal/config"
	"alumniportal/internal/dto"
	"alumniportal/internal/event"
	"alumniportal/internal/model"
	"alumniportal/internal/repository"
	"alumniportal/pkg/apperror"
)

// RequestService is the request state machine: pending -> approved|rejected,
// one-way and race-guarded. Every successful transition dispatches exactly
// one notification inside the same transaction as the status write.
type RequestService interface {
	SubmitContactRequest(ctx context.Context, requesterID uuid.UUID, input dto.SubmitContactRequestInput) (*model.Request, error)
	SubmitJobRequest(ctx context.Context, requesterID uuid.UUID, input dto.SubmitJobRequestInput) (*model.Request, error)
	// SubmitRegistrationRequest is called by the registration flow with the
	// freshly created pending user. It joins the caller's transaction when
	// there is one.
	SubmitRegistrationRequest(ctx context.Context, requesterID uuid.UUID, message *string) (*model.Request, error)
	Decide(ctx context.Context, requestID uuid.UUID, actor *model.User, outcome string, reason string) (*model.Request, error)
	ListSent(ctx context.Context, requesterID uuid.UUID, filter dto.RequestFilter) ([]model.Request, int64, error)
	ListReceived(ctx context.Context, user *model.User, filter dto.RequestFilter) ([]model.Request, int64, error)
	ListRegistrations(ctx context.Context, filter dto.RequestFilter) ([]model.Request, int64, error)
	ContactStatus(ctx context.Context, userID, otherID uuid.UUID) (*dto.ContactStatusResponse, error)
}

type requestService struct {
	requests      repository.RequestRepository
	users         repository.UserRepository
	resources     repository.ResourceRepository
	dispatcher    NotificationDispatcher
	conversations ConversationService
	notifications NotificationService
	txm           repository.TxManager
	redisClient   *redis.Client
	cfg           *config.Config
}

func NewRequestService(
	requests repository.RequestRepository,
	users repository.UserRepository,
	resources repository.ResourceRepository,
	dispatcher NotificationDispatcher,
	conversations ConversationService,
	notifications NotificationService,
	txm repository.TxManager,
	redisClient *redis.Client,
	cfg *config.Config,
) RequestService {
	return &requestService{
		requests:      requests,
		users:         users,
		resources:     resources,
		dispatcher:    dispatcher,
		conversations: conversations,
		notifications: notifications,
		txm:           txm,
		redisClient:   redisClient,
		cfg:           cfg,
	}
}

func (s *requestService) SubmitContactRequest(ctx context.Context, requesterID uuid.UUID, input dto.SubmitContactRequestInput) (*model.Request, error) {
	targetID, err := uuid.Parse(input.TargetID)
	if err != nil {
		return nil, apperror.ErrInvalidInput
	}
	if targetID == requesterID {
		return nil, apperror.New(http.StatusBadRequest, "cannot send a contact request to yourself", apperror.ErrBadRequest)
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status != model.UserActive {
		return nil, apperror.ErrNotFound
	}

	// Friendly pre-checks, both directions. The partial unique index on
	// (requester, target, kind) pending rows remains the authority.
	if latest, err := s.requests.LatestBetween(ctx, requesterID, targetID); err == nil {
		switch latest.Status {
		case model.RequestPending:
			return nil, apperror.ErrDuplicatePendingRequest
		case model.RequestApproved:
			return nil, apperror.New(http.StatusConflict, "you are already connected", apperror.ErrBadRequest)
		}
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	requester, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, requesterID, &model.Request{
		Kind:        model.KindContact,
		RequesterID: requesterID,
		TargetID:    targetID,
		Message:     optional(input.Message),
	}, targetID, requester.FullName, "")
}

func (s *requestService) SubmitJobRequest(ctx context.Context, requesterID uuid.UUID, input dto.SubmitJobRequestInput) (*model.Request, error) {
	jobID, err := uuid.Parse(input.JobID)
	if err != nil {
		return nil, apperror.ErrInvalidInput
	}

	job, err := s.resources.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Kind != model.ResourceJob || job.Status != model.ResourcePublished {
		return nil, apperror.ErrNotFound
	}
	if job.AuthorID == requesterID {
		return nil, apperror.New(http.StatusBadRequest, "cannot request contact on your own job posting", apperror.ErrBadRequest)
	}

	if _, err := s.requests.FindPending(ctx, model.KindJobContact, requesterID, jobID); err == nil {
		return nil, apperror.ErrDuplicatePendingRequest
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	requester, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, requesterID, &model.Request{
		Kind:        model.KindJobContact,
		RequesterID: requesterID,
		TargetID:    jobID,
		Message:     optional(input.Message),
	}, job.AuthorID, requester.FullName, job.Title)
}

func (s *requestService) SubmitRegistrationRequest(ctx context.Context, requesterID uuid.UUID, message *string) (*model.Request, error) {
	req := &model.Request{
		Kind:        model.KindRegistration,
		RequesterID: requesterID,
		Message:     message,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	// Registration submissions have no single recipient; the dispatcher
	// records nothing for them.
	return req, nil
}

// submit creates the pending request and fans out the submitted notification
// as one unit of work.
func (s *requestService) submit(ctx context.Context, requesterID uuid.UUID, req *model.Request, recipient uuid.UUID, requesterName, subject string) (*model.Request, error) {
	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, requesterID, "submit_request", s.cfg.RateLimitSubmit)
	if err != nil {
		log.Printf("rate limit check failed, allowing request: %v", err)
	} else if !allowed {
		return nil, apperror.ErrRateLimitExceeded
	}

	var created *model.Notification
	err = s.txm.Transact(ctx, func(ctx context.Context) error {
		if err := s.requests.Create(ctx, req); err != nil {
			return err
		}

		n, err := s.dispatcher.Dispatch(ctx, event.RequestSubmitted{
			Request:       req,
			Recipient:     recipient,
			RequesterName: requesterName,
			Subject:       subject,
		})
		if err != nil && !errors.Is(err, apperror.ErrDispatchSkipped) {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.EchoEmail(ctx, created)

	return req, nil
}

func (s *requestService) Decide(ctx context.Context, requestID uuid.UUID, actor *model.User, outcome string, reason string) (*model.Request, error) {
	status, ok := model.OutcomeStatus(outcome)
	if !ok {
		return nil, apperror.ErrInvalidInput
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, apperror.ErrAlreadyDecided
	}

	counterparty, subject, err := s.authorizeDecision(ctx, req, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	decidedReason := optional(reason)

	var created *model.Notification
	err = s.txm.Transact(ctx, func(ctx context.Context) error {
		// Compare-and-set: only one decision ever lands. A concurrent
		// decision makes this return ErrAlreadyDecided and the whole unit
		// rolls back without touching notifications.
		if err := s.requests.DecidePending(ctx, req.ID, status, actor.ID, decidedReason, now); err != nil {
			return err
		}
		req.Status = status
		req.Reason = decidedReason
		req.DeciderID = &actor.ID
		req.DecidedAt = &now

		n, err := s.dispatcher.Dispatch(ctx, event.RequestDecided{
			Request:     req,
			DeciderName: actor.FullName,
			Subject:     subject,
		})
		if err != nil && !errors.Is(err, apperror.ErrDispatchSkipped) {
			return err
		}
		created = n

		if status == model.RequestApproved {
			switch req.Kind {
			case model.KindContact, model.KindJobContact:
				if _, err := s.conversations.EnsureConversation(ctx, req.RequesterID, counterparty, &req.ID); err != nil {
					return err
				}
			case model.KindRegistration:
				if err := s.users.UpdateStatus(ctx, req.RequesterID, model.UserActive); err != nil {
					return err
				}
			}
		} else if req.Kind == model.KindRegistration {
			if err := s.users.UpdateStatus(ctx, req.RequesterID, model.UserInactive); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.EchoEmail(ctx, created)

	return req, nil
}

// authorizeDecision checks that the actor is the legitimate decider for the
// request and resolves the counterparty and subject line.
func (s *requestService) authorizeDecision(ctx context.Context, req *model.Request, actor *model.User) (uuid.UUID, string, error) {
	switch req.Kind {
	case model.KindContact:
		if req.TargetID != actor.ID && !actor.IsAdmin() {
			return uuid.Nil, "", apperror.ErrForbidden
		}
		return req.TargetID, "", nil
	case model.KindJobContact:
		job, err := s.resources.FindByID(ctx, req.TargetID)
		if err != nil {
			return uuid.Nil, "", err
		}
		if job.AuthorID != actor.ID && !actor.IsAdmin() {
			return uuid.Nil, "", apperror.ErrForbidden
		}
		return job.AuthorID, job.Title, nil
	case model.KindRegistration:
		if !actor.IsAdmin() {
			return uuid.Nil, "", apperror.ErrForbidden
		}
		return uuid.Nil, "", nil
	}
	return uuid.Nil, "", apperror.ErrInvalidInput
}

func (s *requestService) ListSent(ctx context.Context, requesterID uuid.UUID, filter dto.RequestFilter) ([]model.Request, int64, error) {
	filter.Normalize()
	return s.requests.ListByRequester(ctx, requesterID,
		model.RequestStatus(filter.Status), model.RequestKind(filter.Kind),
		filter.Limit, filter.Offset())
}

func (s *requestService) ListReceived(ctx context.Context, user *model.User, filter dto.RequestFilter) ([]model.Request, int64, error) {
	filter.Normalize()

	// Received requests target either the member directly (contact) or one
	// of their job postings (job contact).
	targets := []uuid.UUID{user.ID}
	jobIDs, err := s.resources.IDsByAuthor(ctx, user.ID, model.ResourceJob)
	if err != nil {
		return nil, 0, err
	}
	targets = append(targets, jobIDs...)

	return s.requests.ListByTarget(ctx, targets,
		model.RequestStatus(filter.Status), model.RequestKind(filter.Kind),
		filter.Limit, filter.Offset())
}

func (s *requestService) ListRegistrations(ctx context.Context, filter dto.RequestFilter) ([]model.Request, int64, error) {
	filter.Normalize()
	return s.requests.ListByTarget(ctx, []uuid.UUID{uuid.Nil},
		model.RequestStatus(filter.Status), model.KindRegistration,
		filter.Limit, filter.Offset())
}

func (s *requestService) ContactStatus(ctx context.Context, userID, otherID uuid.UUID) (*dto.ContactStatusResponse, error) {
	if userID == otherID {
		return &dto.ContactStatusResponse{Status: "self"}, nil
	}

	latest, err := s.requests.LatestBetween(ctx, userID, otherID)
	if errors.Is(err, apperror.ErrNotFound) {
		return &dto.ContactStatusResponse{Status: "none"}, nil
	}
	if err != nil {
		return nil, err
	}

	status := string(latest.Status)
	if latest.Status == model.RequestPending {
		if latest.RequesterID == userID {
			status = "pending_sent"
		} else {
			status = "pending_received"
		}
	}

	return &dto.ContactStatusResponse{
		Status:    status,
		RequestID: latest.ID.String(),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
