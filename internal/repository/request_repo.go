package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alumniportal/internal/model"
	"alumniportal/pkg/apperror"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	// FindPending returns the outstanding pending request for the triple, if
	// any. This backs the friendly pre-check; the partial unique index is the
	// authority.
	FindPending(ctx context.Context, kind model.RequestKind, requesterID, targetID uuid.UUID) (*model.Request, error)
	// DecidePending performs the compare-and-set: the update only applies
	// while status is still pending. Returns ErrAlreadyDecided when another
	// decision got there first.
	DecidePending(ctx context.Context, id uuid.UUID, status model.RequestStatus, deciderID uuid.UUID, reason *string, decidedAt time.Time) error
	ListByRequester(ctx context.Context, requesterID uuid.UUID, status model.RequestStatus, kind model.RequestKind, limit, offset int) ([]model.Request, int64, error)
	ListByTarget(ctx context.Context, targetIDs []uuid.UUID, status model.RequestStatus, kind model.RequestKind, limit, offset int) ([]model.Request, int64, error)
	// LatestBetween returns the most recent contact request in either
	// direction between two members.
	LatestBetween(ctx context.Context, a, b uuid.UUID) (*model.Request, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	err := dbFromContext(ctx, r.db).Create(req).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.ErrDuplicatePendingRequest
	}
	return err
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	err := dbFromContext(ctx, r.db).Preload("Requester").First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindPending(ctx context.Context, kind model.RequestKind, requesterID, targetID uuid.UUID) (*model.Request, error) {
	var req model.Request
	err := dbFromContext(ctx, r.db).
		Where("kind = ? AND requester_id = ? AND target_id = ? AND status = ?",
			kind, requesterID, targetID, model.RequestPending).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) DecidePending(ctx context.Context, id uuid.UUID, status model.RequestStatus, deciderID uuid.UUID, reason *string, decidedAt time.Time) error {
	result := dbFromContext(ctx, r.db).Model(&model.Request{}).
		Where("id = ? AND status = ?", id, model.RequestPending).
		Updates(map[string]interface{}{
			"status":     status,
			"decider_id": deciderID,
			"reason":     reason,
			"decided_at": decidedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or someone else decided first. The row is
		// never deleted, so distinguish for the caller.
		var count int64
		if err := dbFromContext(ctx, r.db).Model(&model.Request{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.ErrNotFound
		}
		return apperror.ErrAlreadyDecided
	}
	return nil
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID, status model.RequestStatus, kind model.RequestKind, limit, offset int) ([]model.Request, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&model.Request{}).
		Where("requester_id = ?", requesterID)
	return listRequests(query, status, kind, limit, offset)
}

func (r *requestRepository) ListByTarget(ctx context.Context, targetIDs []uuid.UUID, status model.RequestStatus, kind model.RequestKind, limit, offset int) ([]model.Request, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&model.Request{}).
		Where("target_id IN ?", targetIDs).
		Preload("Requester")
	return listRequests(query, status, kind, limit, offset)
}

func listRequests(query *gorm.DB, status model.RequestStatus, kind model.RequestKind, limit, offset int) ([]model.Request, int64, error) {
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []model.Request
	err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&requests).Error
	return requests, total, err
}

func (r *requestRepository) LatestBetween(ctx context.Context, a, b uuid.UUID) (*model.Request, error) {
	var req model.Request
	err := dbFromContext(ctx, r.db).
		Where("kind = ?", model.KindContact).
		Where("(requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?)", a, b, b, a).
		Order("created_at desc").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
