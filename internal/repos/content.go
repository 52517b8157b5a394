package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
)

type ContentRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ContentItem, error)
	// ListForScan returns the unfiltered candidate source scan: avg rating
	// desc, published desc, created desc. Deterministic so that truncation
	// by the candidate ceiling is reproducible.
	ListForScan(ctx context.Context, tx *gorm.DB, limit int) ([]domain.ContentItem, error)
	// ListTrending orders by avg rating desc, view count desc, published desc.
	ListTrending(ctx context.Context, tx *gorm.DB, limit int, contentTypes []string) ([]domain.ContentItem, error)
	GetEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID) (domain.Vector, error)
	SaveEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec domain.Vector) error
	IncrementViewCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{db: db, log: baseLog.With("repo", "ContentRepo")}
}

func (r *contentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ContentItem, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.ContentItem
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *contentRepo) ListForScan(ctx context.Context, tx *gorm.DB, limit int) ([]domain.ContentItem, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 1000
	}
	var rows []domain.ContentItem
	err := t.WithContext(ctx).
		Order("avg_rating DESC").
		Order("published_at DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentRepo) ListTrending(ctx context.Context, tx *gorm.DB, limit int, contentTypes []string) ([]domain.ContentItem, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	q := t.WithContext(ctx).
		Order("avg_rating DESC").
		Order("view_count DESC").
		Order("published_at DESC").
		Limit(limit)
	if len(contentTypes) > 0 {
		q = q.Where("content_type IN ?", contentTypes)
	}
	var rows []domain.ContentItem
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentRepo) GetEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID) (domain.Vector, error) {
	row, err := r.GetByID(ctx, tx, id)
	if err != nil || row == nil {
		return nil, err
	}
	return row.Embedding, nil
}

func (r *contentRepo) SaveEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec domain.Vector) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Where("id = ?", id).
		Update("embedding", vec).Error
}

func (r *contentRepo) IncrementViewCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
