package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
)

type UserProfileRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.UserProfile, error)
	GetEmbedding(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (domain.Vector, error)
	SaveEmbedding(ctx context.Context, tx *gorm.DB, userID uuid.UUID, vec domain.Vector) error
	Upsert(ctx context.Context, tx *gorm.DB, row *domain.UserProfile) error
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (r *userProfileRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.UserProfile, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row domain.UserProfile
	if err := t.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userProfileRepo) GetEmbedding(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (domain.Vector, error) {
	row, err := r.GetByID(ctx, tx, userID)
	if err != nil || row == nil {
		return nil, err
	}
	return row.Embedding, nil
}

func (r *userProfileRepo) SaveEmbedding(ctx context.Context, tx *gorm.DB, userID uuid.UUID, vec domain.Vector) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"embedding":  vec,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *userProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, row *domain.UserProfile) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"interests",
				"goals",
				"preferred_content_types",
				"learning_style",
				"daily_available_minutes",
				"preferred_difficulty",
				"avg_session_minutes",
				"completion_rate",
				"embedding",
				"updated_at",
			}),
		}).
		Create(row).Error
}
