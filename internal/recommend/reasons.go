package recommend

import (
	"fmt"
	"strings"
	"time"

	"github.com/pathwise/pathwise-backend/internal/domain"
)

// Reasons derives the human-readable justifications for a scored candidate.
// It re-checks the qualitative triggers the score came from rather than
// re-deriving the score itself, and always returns at least one reason.
func Reasons(profile *domain.UserProfile, item *domain.ContentItem, score float64, now time.Time) []string {
	reasons := make([]string, 0, 4)

	if score > 0.7 {
		reasons = append(reasons, "Highly relevant to your interests and learning goals")
	}
	if goalKeywordHit(profile, item) {
		reasons = append(reasons, "Aligns with your learning goals")
	}
	if profile != nil && profile.PreferredDifficulty != "" &&
		strings.EqualFold(profile.PreferredDifficulty, item.Difficulty) {
		reasons = append(reasons, fmt.Sprintf("Matches your %s level", strings.ToLower(item.Difficulty)))
	}
	if item.AvgRating >= 4 {
		reasons = append(reasons, fmt.Sprintf("Highly rated by other learners (%.1f/5)", item.AvgRating))
	}
	if !item.PublishedAt.IsZero() && now.Sub(item.PublishedAt) <= 7*24*time.Hour && !item.PublishedAt.After(now) {
		reasons = append(reasons, "Recently published")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Recommended based on your learning profile")
	}
	return reasons
}
