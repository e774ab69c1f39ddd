package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alumniportal/internal/model"
	"alumniportal/pkg/apperror"
)

type ResourceRepository interface {
	Create(ctx context.Context, res *model.Resource) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	Update(ctx context.Context, res *model.Resource) error
	// TransitionFrom applies field updates only while the resource is still
	// in the expected status; the rows-affected check is the race guard for
	// concurrent moderation.
	TransitionFrom(ctx context.Context, id uuid.UUID, from model.ResourceStatus, updates map[string]interface{}) error
	List(ctx context.Context, kind model.ResourceKind, status model.ResourceStatus, authorID uuid.UUID, limit, offset int) ([]model.Resource, int64, error)
	IDsByAuthor(ctx context.Context, authorID uuid.UUID, kind model.ResourceKind) ([]uuid.UUID, error)
}

type resourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) Create(ctx context.Context, res *model.Resource) error {
	return dbFromContext(ctx, r.db).Create(res).Error
}

func (r *resourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	err := dbFromContext(ctx, r.db).Preload("Author").First(&res, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepository) Update(ctx context.Context, res *model.Resource) error {
	return dbFromContext(ctx, r.db).Save(res).Error
}

func (r *resourceRepository) TransitionFrom(ctx context.Context, id uuid.UUID, from model.ResourceStatus, updates map[string]interface{}) error {
	result := dbFromContext(ctx, r.db).Model(&model.Resource{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := dbFromContext(ctx, r.db).Model(&model.Resource{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.ErrNotFound
		}
		return apperror.ErrInvalidTransition
	}
	return nil
}

func (r *resourceRepository) List(ctx context.Context, kind model.ResourceKind, status model.ResourceStatus, authorID uuid.UUID, limit, offset int) ([]model.Resource, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&model.Resource{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if authorID != uuid.Nil {
		query = query.Where("author_id = ?", authorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resources []model.Resource
	err := query.Order("created_at desc").Limit(limit).Offset(offset).
		Preload("Author").Find(&resources).Error
	return resources, total, err
}

func (r *resourceRepository) IDsByAuthor(ctx context.Context, authorID uuid.UUID, kind model.ResourceKind) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := dbFromContext(ctx, r.db).Model(&model.Resource{}).
		Where("author_id = ?", authorID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	err := query.Pluck("id", &ids).Error
	return ids, err
}
