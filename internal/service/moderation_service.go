package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"alumniportal/internal/dto"
	"alumniportal/internal/event"
	"alumniportal/internal/model"
	"alumniportal/internal/repository"
	"alumniportal/pkg/apperror"
)

// ModerationService runs the moderatable resource lifecycle. Members draft
// and submit; admins publish or reject; authors retire their own published
// content.
type ModerationService interface {
	Create(ctx context.Context, authorID uuid.UUID, input dto.CreateResourceInput) (*model.Resource, error)
	Update(ctx context.Context, id uuid.UUID, actor *model.User, input dto.UpdateResourceInput) (*model.Resource, error)
	SubmitForReview(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error)
	Approve(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error)
	Reject(ctx context.Context, id uuid.UUID, actor *model.User, input dto.RejectResourceInput) (*model.Resource, error)
	Close(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error)
	Archive(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error)
	Get(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error)
	// List serves the public catalog: published resources only.
	List(ctx context.Context, filter dto.ResourceFilter) ([]model.Resource, int64, error)
	ListMine(ctx context.Context, authorID uuid.UUID, filter dto.ResourceFilter) ([]model.Resource, int64, error)
	// ListPending is the admin review queue.
	ListPending(ctx context.Context, filter dto.ResourceFilter) ([]model.Resource, int64, error)
}

type moderationService struct {
	resources     repository.ResourceRepository
	dispatcher    NotificationDispatcher
	notifications NotificationService
	txm           repository.TxManager
}

func NewModerationService(
	resources repository.ResourceRepository,
	dispatcher NotificationDispatcher,
	notifications NotificationService,
	txm repository.TxManager,
) ModerationService {
	return &moderationService{
		resources:     resources,
		dispatcher:    dispatcher,
		notifications: notifications,
		txm:           txm,
	}
}

func (s *moderationService) Create(ctx context.Context, authorID uuid.UUID, input dto.CreateResourceInput) (*model.Resource, error) {
	res := &model.Resource{
		Kind:     model.ResourceKind(input.Kind),
		AuthorID: authorID,
		Title:    input.Title,
		Body:     input.Body,
		Status:   model.ResourceDraft,
	}
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *moderationService) Update(ctx context.Context, id uuid.UUID, actor *model.User, input dto.UpdateResourceInput) (*model.Resource, error) {
	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.AuthorID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	// Only content that has not passed review is editable.
	if res.Status != model.ResourceDraft && res.Status != model.ResourceRejected {
		return nil, apperror.ErrInvalidTransition
	}

	res.Title = input.Title
	res.Body = input.Body
	if err := s.resources.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *moderationService) SubmitForReview(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error) {
	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.AuthorID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	if !model.CanTransition(res.Status, model.ResourcePending) {
		return nil, apperror.ErrInvalidTransition
	}

	now := time.Now().UTC()
	err = s.resources.TransitionFrom(ctx, id, res.Status, map[string]interface{}{
		"status":       model.ResourcePending,
		"submitted_at": now,
		"reason":       nil,
	})
	if err != nil {
		return nil, err
	}
	res.Status = model.ResourcePending
	res.SubmittedAt = &now
	res.Reason = nil
	return res, nil
}

func (s *moderationService) Approve(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error) {
	return s.decide(ctx, id, actor, model.ResourcePublished, nil)
}

func (s *moderationService) Reject(ctx context.Context, id uuid.UUID, actor *model.User, input dto.RejectResourceInput) (*model.Resource, error) {
	return s.decide(ctx, id, actor, model.ResourceRejected, &input.Reason)
}

// decide moves a pending resource to its reviewed status and dispatches the
// author's notification in the same transaction. The compare-and-set in the
// repository makes concurrent reviews lose cleanly.
func (s *moderationService) decide(ctx context.Context, id uuid.UUID, actor *model.User, to model.ResourceStatus, reason *string) (*model.Resource, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(model.ResourcePending, to) {
		return nil, apperror.ErrInvalidTransition
	}

	now := time.Now().UTC()

	var created *model.Notification
	err = s.txm.Transact(ctx, func(ctx context.Context) error {
		err := s.resources.TransitionFrom(ctx, id, model.ResourcePending, map[string]interface{}{
			"status":     to,
			"reason":     reason,
			"decider_id": actor.ID,
			"decided_at": now,
		})
		if err != nil {
			return err
		}
		res.Status = to
		res.Reason = reason
		res.DeciderID = &actor.ID
		res.DecidedAt = &now

		n, err := s.dispatcher.Dispatch(ctx, event.ResourceDecided{Resource: res})
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

	return res, nil
}

func (s *moderationService) Close(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error) {
	return s.retire(ctx, id, actor, model.ResourceClosed)
}

func (s *moderationService) Archive(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error) {
	return s.retire(ctx, id, actor, model.ResourceArchived)
}

// retire takes a published resource out of circulation. No notification: the
// author initiated it, or an admin did housekeeping.
func (s *moderationService) retire(ctx context.Context, id uuid.UUID, actor *model.User, to model.ResourceStatus) (*model.Resource, error) {
	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if !model.CanTransition(model.ResourcePublished, to) {
		return nil, apperror.ErrInvalidTransition
	}

	err = s.resources.TransitionFrom(ctx, id, model.ResourcePublished, map[string]interface{}{
		"status": to,
	})
	if err != nil {
		return nil, err
	}
	res.Status = to
	return res, nil
}

func (s *moderationService) Get(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Resource, error) {
	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Unpublished content is visible to its author and to admins only.
	if res.Status != model.ResourcePublished && res.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrNotFound
	}
	return res, nil
}

func (s *moderationService) List(ctx context.Context, filter dto.ResourceFilter) ([]model.Resource, int64, error) {
	filter.Normalize()
	return s.resources.List(ctx, model.ResourceKind(filter.Kind),
		model.ResourcePublished, uuid.Nil, filter.Limit, filter.Offset())
}

func (s *moderationService) ListMine(ctx context.Context, authorID uuid.UUID, filter dto.ResourceFilter) ([]model.Resource, int64, error) {
	filter.Normalize()
	return s.resources.List(ctx, model.ResourceKind(filter.Kind),
		model.ResourceStatus(filter.Status), authorID, filter.Limit, filter.Offset())
}

func (s *moderationService) ListPending(ctx context.Context, filter dto.ResourceFilter) ([]model.Resource, int64, error) {
	filter.Normalize()
	return s.resources.List(ctx, model.ResourceKind(filter.Kind),
		model.ResourcePending, uuid.Nil, filter.Limit, filter.Offset())
}
