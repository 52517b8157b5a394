package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Interest struct {
	Topic       string `json:"topic"`
	Proficiency string `json:"proficiency"` // beginner | intermediate | advanced
	Priority    int    `json:"priority"`    // 1..10, clamped by the caller
}

type LearningGoal struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Progress    float64    `json:"progress"` // 0..100
}

type UserProfile struct {
	ID                    uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	Interests             datatypes.JSONSlice[Interest]     `json:"interests"`
	Goals                 datatypes.JSONSlice[LearningGoal] `json:"goals"`
	PreferredContentTypes datatypes.JSONSlice[string]       `json:"preferredContentTypes"`
	LearningStyle         string                            `json:"learningStyle"`
	DailyAvailableMinutes int                               `json:"dailyAvailableMinutes"`

	// Behavioral analytics, maintained outside this engine.
	PreferredDifficulty string  `json:"preferredDifficulty"`
	AvgSessionMinutes   float64 `json:"avgSessionMinutes"`
	CompletionRate      float64 `json:"completionRate"` // 0..1

	// Derived, cached artifact. Recomputed in full on profile edits, nudged
	// incrementally on interaction events. Never the source of truth.
	Embedding Vector `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Interaction is the ephemeral engagement signal consumed to nudge a user's
// embedding. The persisted row (UserInteraction) additionally feeds the
// view-history used by the exclude-viewed option.
type Interaction struct {
	Rating           *float64 `json:"rating,omitempty"` // 0..5
	TimeSpentSeconds *int     `json:"timeSpentSeconds,omitempty"`
	Completed        bool     `json:"completed"`
}

type UserInteraction struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	ContentID        uuid.UUID `gorm:"type:uuid;index" json:"contentId"`
	Rating           *float64  `json:"rating,omitempty"`
	TimeSpentSeconds *int      `json:"timeSpentSeconds,omitempty"`
	Completed        bool      `json:"completed"`
	CreatedAt        time.Time `json:"createdAt"`
}
