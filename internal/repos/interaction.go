package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
)

type InteractionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.UserInteraction) error
	// ListContentIDsByUser returns the ids of content the user has
	// interacted with, for the exclude-viewed option.
	ListContentIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	return &interactionRepo{db: db, log: baseLog.With("repo", "InteractionRepo")}
}

func (r *interactionRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.UserInteraction) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.ContentID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *interactionRepo) ListContentIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var ids []uuid.UUID
	err := t.WithContext(ctx).
		Model(&domain.UserInteraction{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
