package recommend

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/embedding"
	"github.com/pathwise/pathwise-backend/internal/logger"
)

// Sub-score weights. They sum to 1 so the weighted total stays in [0,1]
// without depending on the final clamp.
const (
	weightSimilarity = 0.40
	weightGoals      = 0.25
	weightPreference = 0.15
	weightQuality    = 0.10
	weightRecency    = 0.05
)

// DefaultScoreThreshold is deliberately low: the fallback encoder produces
// small cosine values, and the threshold only exists to drop dead candidates.
const DefaultScoreThreshold = 0.01

const recencyWindowDays = 30

// keywordRule is one row of the declarative goal-matching table: if any of
// its terms appears in a goal's text, the rule contributes delta.
type keywordRule struct {
	terms []string
	delta float64
}

type ScoringEngine struct {
	log       *logger.Logger
	threshold float64
	workers   int
	now       func() time.Time
	// score is the per-candidate scorer Rank dispatches to. Defaults to
	// Score; replaceable so the skip-on-panic path stays reachable.
	score func(profile *domain.UserProfile, item *domain.ContentItem) float64
}

func NewScoringEngine(log *logger.Logger, threshold float64) *ScoringEngine {
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	e := &ScoringEngine{
		log:       log.With("service", "ScoringEngine"),
		threshold: threshold,
		workers:   8,
		now:       time.Now,
	}
	e.score = e.Score
	return e
}

// Score computes the bounded [0,1] recommendation score for one candidate.
// Missing data on either side resolves to neutral sub-scores, never an
// error.
func (e *ScoringEngine) Score(profile *domain.UserProfile, item *domain.ContentItem) float64 {
	var profileVec domain.Vector
	if profile != nil {
		profileVec = profile.Embedding
	}
	score := weightSimilarity*clamp01(math.Max(0, embedding.Cosine(profileVec, item.Embedding))) +
		weightGoals*clamp01(goalAlignment(profile, item)) +
		weightPreference*clamp01(preferenceMatch(profile, item)) +
		weightQuality*clamp01(qualityScore(item)) +
		weightRecency*clamp01(recencyBoost(item, e.now()))
	return clamp01(score)
}

// Rank scores every candidate (the map phase is parallel, candidates are
// independent), drops those at or below the threshold, and returns the top
// limit recommendations in descending score order. Ties keep input order.
// A candidate whose scoring panics is skipped, never the whole batch.
func (e *ScoringEngine) Rank(ctx context.Context, profile *domain.UserProfile, items []domain.ContentItem, limit int) []domain.Recommendation {
	if limit <= 0 {
		limit = 10
	}
	scores := make([]float64, len(items))
	skipped := make([]bool, len(items))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range items {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					skipped[i] = true
					e.log.Warn("Skipping candidate, scoring panicked", "content_id", items[i].ID, "panic", r)
				}
			}()
			scores[i] = e.score(profile, &items[i])
			return nil
		})
	}
	_ = g.Wait()

	idx := make([]int, 0, len(items))
	for i := range items {
		if skipped[i] || scores[i] <= e.threshold {
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	if len(idx) > limit {
		idx = idx[:limit]
	}

	out := make([]domain.Recommendation, 0, len(idx))
	for _, i := range idx {
		out = append(out, domain.Recommendation{Content: items[i], Score: scores[i]})
	}
	return out
}

// goalAlignment takes the best alignment across the user's goals. Each goal
// is matched against the content's term rules; an incomplete goal gets a
// flat bonus. No goals is neutral (0.5), not zero.
func goalAlignment(profile *domain.UserProfile, item *domain.ContentItem) float64 {
	if profile == nil || len(profile.Goals) == 0 {
		return 0.5
	}
	rules := contentKeywordRules(item)
	best := 0.0
	for _, goal := range profile.Goals {
		text := strings.ToLower(goal.Title + " " + goal.Description)
		score := 0.0
		for _, rule := range rules {
			for _, term := range rule.terms {
				if strings.Contains(text, term) {
					score += rule.delta
					break
				}
			}
		}
		if score > 0 && goal.Progress < 100 {
			score += 0.2
		}
		if score > best {
			best = score
		}
	}
	return math.Min(best, 1)
}

// contentKeywordRules builds the rule table for one candidate: every tag,
// key topic, and the category contributes 0.3 when a goal mentions it.
func contentKeywordRules(item *domain.ContentItem) []keywordRule {
	rules := make([]keywordRule, 0, len(item.Tags)+len(item.KeyTopics)+1)
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		rules = append(rules, keywordRule{terms: []string{term}, delta: 0.3})
	}
	for _, t := range item.Tags {
		add(t)
	}
	for _, t := range item.KeyTopics {
		add(t)
	}
	add(item.Category)
	return rules
}

// preferenceMatch averages up to three independently-gated factors; only
// factors with applicable data participate. None applicable is neutral.
func preferenceMatch(profile *domain.UserProfile, item *domain.ContentItem) float64 {
	if profile == nil {
		return 0.5
	}
	sum := 0.0
	applied := 0

	if profile.PreferredDifficulty != "" && item.Difficulty != "" {
		applied++
		if strings.EqualFold(profile.PreferredDifficulty, item.Difficulty) {
			sum += 0.3
		}
	}
	if profile.DailyAvailableMinutes > 0 && item.DurationSeconds > 0 {
		applied++
		if item.DurationSeconds <= profile.DailyAvailableMinutes*60 {
			sum += 0.2
		}
	}
	if len(profile.Interests) > 0 {
		applied++
		matches := 0
		topics := interestTopicSet(profile)
		for _, tag := range item.Tags {
			if topics[strings.ToLower(tag)] {
				matches++
			}
		}
		for _, kt := range item.KeyTopics {
			if topics[strings.ToLower(kt)] {
				matches++
			}
		}
		sum += math.Min(0.1*float64(matches), 0.4)
	}

	if applied == 0 {
		return 0.5
	}
	return sum / float64(applied)
}

// qualityScore averages the available quality signals; an item with no
// stats at all is neutral rather than penalized.
func qualityScore(item *domain.ContentItem) float64 {
	sum := 0.0
	applied := 0
	if item.AvgRating > 0 {
		sum += item.AvgRating / 5
		applied++
	}
	if item.CompletionRate > 0 {
		sum += item.CompletionRate
		applied++
	}
	if item.ViewCount > 0 {
		sum += math.Min(float64(item.ViewCount)/100, 1)
		applied++
	}
	if applied == 0 {
		return 0.5
	}
	return sum / float64(applied)
}

// recencyBoost decays linearly from 1 at publish-day to 0 at 30 days.
func recencyBoost(item *domain.ContentItem, now time.Time) float64 {
	if item.PublishedAt.IsZero() || item.PublishedAt.After(now) {
		return 0
	}
	ageDays := now.Sub(item.PublishedAt).Hours() / 24
	if ageDays >= recencyWindowDays {
		return 0
	}
	return 1 - ageDays/recencyWindowDays
}

// goalKeywordHit reports whether any goal mentions any of the candidate's
// terms. Shared with reason generation so explanations track scoring.
func goalKeywordHit(profile *domain.UserProfile, item *domain.ContentItem) bool {
	if profile == nil || len(profile.Goals) == 0 {
		return false
	}
	rules := contentKeywordRules(item)
	for _, goal := range profile.Goals {
		text := strings.ToLower(goal.Title + " " + goal.Description)
		for _, rule := range rules {
			for _, term := range rule.terms {
				if strings.Contains(text, term) {
					return true
				}
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
