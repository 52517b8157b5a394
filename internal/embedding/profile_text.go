package embedding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pathwise/pathwise-backend/internal/domain"
)

// BuildProfileText assembles the descriptive document a user's embedding is
// generated from. It returns "" when no profile fields are populated, which
// callers must treat as "do not embed" — the profile's vector stays nil
// rather than becoming an embedding of empty text.
func BuildProfileText(p *domain.UserProfile) string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, 5)

	if len(p.Interests) > 0 {
		interests := make([]domain.Interest, len(p.Interests))
		copy(interests, p.Interests)
		sort.SliceStable(interests, func(i, j int) bool {
			return interests[i].Priority > interests[j].Priority
		})
		rendered := make([]string, 0, len(interests))
		for _, in := range interests {
			rendered = append(rendered, fmt.Sprintf("%s (%s level, priority %d)", in.Topic, in.Proficiency, in.Priority))
		}
		parts = append(parts, "Interests: "+strings.Join(rendered, ", "))
	}

	if len(p.Goals) > 0 {
		rendered := make([]string, 0, len(p.Goals))
		for _, g := range p.Goals {
			if strings.TrimSpace(g.Description) != "" {
				rendered = append(rendered, g.Title+": "+g.Description)
			} else {
				rendered = append(rendered, g.Title)
			}
		}
		parts = append(parts, "Learning goals: "+strings.Join(rendered, "; "))
	}

	if len(p.PreferredContentTypes) > 0 {
		parts = append(parts, "Preferred content types: "+strings.Join(p.PreferredContentTypes, ", "))
	}
	if s := strings.TrimSpace(p.LearningStyle); s != "" {
		parts = append(parts, "Learning style: "+s)
	}
	if s := strings.TrimSpace(p.PreferredDifficulty); s != "" {
		parts = append(parts, "Preferred difficulty: "+s)
	}

	return strings.Join(parts, "\n")
}
