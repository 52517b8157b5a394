package recommend

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pathwise/pathwise-backend/internal/domain"
)

// DefaultMaxCandidates caps the candidate set handed to the exhaustive
// scoring pass.
const DefaultMaxCandidates = 1000

// Filters are the caller-supplied constraints of a recommendation request.
// Zero values mean "no constraint".
type Filters struct {
	ContentTypes       []string
	Difficulty         string
	MaxDurationSeconds int
	ExcludeContentIDs  map[uuid.UUID]bool
}

type CandidateSelector struct {
	maxCandidates int
}

func NewCandidateSelector(maxCandidates int) *CandidateSelector {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &CandidateSelector{maxCandidates: maxCandidates}
}

// Select filters items down to at most maxCandidates. The predicates are a
// conjunction; items must arrive in the documented scan order (avg rating
// desc, published desc, created desc) so truncation is deterministic.
func (s *CandidateSelector) Select(profile *domain.UserProfile, items []domain.ContentItem, f Filters) []domain.ContentItem {
	allowedTypes := toLowerSet(f.ContentTypes)
	allowedDifficulties := s.allowedDifficulties(profile, f)
	maxDuration := s.maxDuration(profile, f)
	interestTopics := interestTopicSet(profile)

	out := make([]domain.ContentItem, 0, s.maxCandidates)
	for i := range items {
		item := &items[i]
		if f.ExcludeContentIDs != nil && f.ExcludeContentIDs[item.ID] {
			continue
		}
		if len(allowedTypes) > 0 && !allowedTypes[strings.ToLower(item.ContentType)] {
			continue
		}
		if len(allowedDifficulties) > 0 && !allowedDifficulties[strings.ToLower(item.Difficulty)] {
			continue
		}
		if maxDuration > 0 && item.DurationSeconds > maxDuration {
			continue
		}
		if len(interestTopics) > 0 && !overlapsInterests(item, interestTopics) {
			continue
		}
		out = append(out, *item)
		if len(out) >= s.maxCandidates {
			break
		}
	}
	return out
}

// allowedDifficulties resolves the difficulty predicate. An explicit filter
// wins; otherwise the user's preferred difficulty expands to its
// adjacent-inclusive band, clamped at the ends of the ordering.
func (s *CandidateSelector) allowedDifficulties(profile *domain.UserProfile, f Filters) map[string]bool {
	if d := strings.ToLower(strings.TrimSpace(f.Difficulty)); d != "" {
		return map[string]bool{d: true}
	}
	pref := ""
	if profile != nil {
		pref = strings.ToLower(strings.TrimSpace(profile.PreferredDifficulty))
	}
	switch pref {
	case domain.DifficultyBeginner:
		return map[string]bool{domain.DifficultyBeginner: true, domain.DifficultyIntermediate: true}
	case domain.DifficultyIntermediate:
		return map[string]bool{domain.DifficultyBeginner: true, domain.DifficultyIntermediate: true, domain.DifficultyAdvanced: true}
	case domain.DifficultyAdvanced:
		return map[string]bool{domain.DifficultyIntermediate: true, domain.DifficultyAdvanced: true}
	}
	return nil
}

func (s *CandidateSelector) maxDuration(profile *domain.UserProfile, f Filters) int {
	if f.MaxDurationSeconds > 0 {
		return f.MaxDurationSeconds
	}
	if profile != nil && profile.DailyAvailableMinutes > 0 {
		return profile.DailyAvailableMinutes * 60
	}
	return 0
}

func interestTopicSet(profile *domain.UserProfile) map[string]bool {
	if profile == nil || len(profile.Interests) == 0 {
		return nil
	}
	set := make(map[string]bool, len(profile.Interests))
	for _, in := range profile.Interests {
		if t := strings.ToLower(strings.TrimSpace(in.Topic)); t != "" {
			set[t] = true
		}
	}
	return set
}

func overlapsInterests(item *domain.ContentItem, topics map[string]bool) bool {
	for _, tag := range item.Tags {
		if topics[strings.ToLower(tag)] {
			return true
		}
	}
	for _, kt := range item.KeyTopics {
		if topics[strings.ToLower(kt)] {
			return true
		}
	}
	return topics[strings.ToLower(item.Category)]
}

func toLowerSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if t := strings.ToLower(strings.TrimSpace(v)); t != "" {
			set[t] = true
		}
	}
	return set
}

// SortForScan orders items the way the candidate source scan does. Repos
// push this ordering into SQL; in-memory sources and tests use it directly.
func SortForScan(items []domain.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].AvgRating != items[j].AvgRating {
			return items[i].AvgRating > items[j].AvgRating
		}
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// SortTrending orders items by descending (avgRating, viewCount,
// publishedAt), the pure-trending order used when no user is given.
func SortTrending(items []domain.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].AvgRating != items[j].AvgRating {
			return items[i].AvgRating > items[j].AvgRating
		}
		if items[i].ViewCount != items[j].ViewCount {
			return items[i].ViewCount > items[j].ViewCount
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
