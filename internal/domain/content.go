package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Difficulty levels, ordered from easiest to hardest.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type ContentItem struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string                      `gorm:"not null" json:"title"`
	Description     string                      `json:"description"`
	ContentType     string                      `gorm:"index" json:"contentType"`
	Category        string                      `gorm:"index" json:"category"`
	Difficulty      string                      `gorm:"index" json:"difficulty"`
	DurationSeconds int                         `json:"durationSeconds"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	KeyTopics       datatypes.JSONSlice[string] `json:"keyTopics"`
	Summary         string                      `json:"summary"`
	KeyPoints       datatypes.JSONSlice[string] `json:"keyPoints"`
	AvgRating       float64                     `json:"avgRating"`
	CompletionRate  float64                     `json:"completionRate"`
	ViewCount       int64                       `json:"viewCount"`
	PublishedAt     time.Time                   `gorm:"index" json:"publishedAt"`
	Embedding       Vector                      `json:"-"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// Recommendation is a scored, explained content item. Output only, never
// persisted.
type Recommendation struct {
	Content ContentItem `json:"content"`
	Score   float64     `json:"score"`
	Reasons []string    `json:"reasons"`
}
