package recommend

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
)

func newTestEngine() *ScoringEngine {
	return NewScoringEngine(logger.NewNop(), 0)
}

func TestScoreAlwaysBounded(t *testing.T) {
	engine := newTestEngine()
	cases := []struct {
		name    string
		profile *domain.UserProfile
		item    domain.ContentItem
	}{
		{name: "empty_everything", profile: &domain.UserProfile{}, item: domain.ContentItem{}},
		{name: "nil_profile", profile: nil, item: domain.ContentItem{Title: "x"}},
		{
			name: "malformed_stats",
			profile: &domain.UserProfile{
				Interests: []domain.Interest{{Topic: "go", Priority: 99}},
				Goals:     []domain.LearningGoal{{Title: "go go go go go", Progress: -50}},
			},
			item: domain.ContentItem{
				Tags:           []string{"go", "go", "go", "go", "go", "go"},
				AvgRating:      1000,
				CompletionRate: 50,
				ViewCount:      1 << 40,
				PublishedAt:    time.Now(),
			},
		},
		{
			name:    "mismatched_vectors",
			profile: &domain.UserProfile{Embedding: domain.Vector{1, 2, 3}},
			item:    domain.ContentItem{Embedding: domain.Vector{1, 2}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Score(tc.profile, &tc.item)
			if got < 0 || got > 1 {
				t.Fatalf("score %v out of [0,1]", got)
			}
		})
	}
}

func TestGoalAlignmentNeutralWithoutGoals(t *testing.T) {
	item := domain.ContentItem{Tags: []string{"go"}}
	if got := goalAlignment(&domain.UserProfile{}, &item); got != 0.5 {
		t.Fatalf("goalAlignment without goals=%v, want 0.5", got)
	}
}

func TestGoalAlignmentKeywordHits(t *testing.T) {
	item := domain.ContentItem{Tags: []string{"kubernetes"}, Category: "devops"}
	p := &domain.UserProfile{
		Goals: []domain.LearningGoal{
			{Title: "Master kubernetes", Description: "devops career path", Progress: 40},
			{Title: "Unrelated", Description: "piano", Progress: 0},
		},
	}
	// Two keyword hits (0.3 each) plus incomplete bonus 0.2.
	if got := goalAlignment(p, &item); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("goalAlignment=%v, want 0.8", got)
	}

	// Completed goal loses the bonus.
	p.Goals[0].Progress = 100
	if got := goalAlignment(p, &item); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("goalAlignment with complete goal=%v, want 0.6", got)
	}
}

func TestPreferenceMatchGating(t *testing.T) {
	t.Run("neutral_when_no_factors_apply", func(t *testing.T) {
		if got := preferenceMatch(&domain.UserProfile{}, &domain.ContentItem{}); got != 0.5 {
			t.Fatalf("preferenceMatch=%v, want 0.5", got)
		}
	})

	t.Run("difficulty_only", func(t *testing.T) {
		p := &domain.UserProfile{PreferredDifficulty: "beginner"}
		item := domain.ContentItem{Difficulty: "beginner"}
		if got := preferenceMatch(p, &item); math.Abs(got-0.3) > 1e-9 {
			t.Fatalf("preferenceMatch=%v, want 0.3", got)
		}
	})

	t.Run("all_factors", func(t *testing.T) {
		p := &domain.UserProfile{
			PreferredDifficulty:   "intermediate",
			DailyAvailableMinutes: 60,
			Interests: []domain.Interest{
				{Topic: "go"}, {Topic: "sql"},
			},
		}
		item := domain.ContentItem{
			Difficulty:      "intermediate",
			DurationSeconds: 1800,
			Tags:            []string{"go", "sql"},
		}
		// (0.3 + 0.2 + 0.2) / 3
		if got := preferenceMatch(p, &item); math.Abs(got-0.7/3) > 1e-9 {
			t.Fatalf("preferenceMatch=%v, want %v", got, 0.7/3)
		}
	})

	t.Run("interest_overlap_capped", func(t *testing.T) {
		p := &domain.UserProfile{Interests: []domain.Interest{
			{Topic: "a"}, {Topic: "b"}, {Topic: "c"}, {Topic: "d"}, {Topic: "e"}, {Topic: "f"},
		}}
		item := domain.ContentItem{Tags: []string{"a", "b", "c", "d", "e", "f"}}
		if got := preferenceMatch(p, &item); math.Abs(got-0.4) > 1e-9 {
			t.Fatalf("preferenceMatch=%v, want cap 0.4", got)
		}
	})
}

func TestQualityScore(t *testing.T) {
	if got := qualityScore(&domain.ContentItem{}); got != 0.5 {
		t.Fatalf("qualityScore with no stats=%v, want 0.5", got)
	}
	item := domain.ContentItem{AvgRating: 4, CompletionRate: 0.6, ViewCount: 50}
	want := (4.0/5 + 0.6 + 0.5) / 3
	if got := qualityScore(&item); math.Abs(got-want) > 1e-9 {
		t.Fatalf("qualityScore=%v, want %v", got, want)
	}
}

func TestRecencyBoost(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{name: "published_today", age: 0, want: 1},
		{name: "fifteen_days", age: 15 * 24 * time.Hour, want: 0.5},
		{name: "thirty_days", age: 30 * 24 * time.Hour, want: 0},
		{name: "ninety_days", age: 90 * 24 * time.Hour, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := domain.ContentItem{PublishedAt: now.Add(-tc.age)}
			got := recencyBoost(&item, now)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("recencyBoost=%v, want %v", got, tc.want)
			}
		})
	}

	if got := recencyBoost(&domain.ContentItem{}, now); got != 0 {
		t.Fatalf("recencyBoost for unpublished item=%v, want 0", got)
	}
}

func TestRankThresholdAndOrdering(t *testing.T) {
	engine := newTestEngine()
	items := []domain.ContentItem{
		{ID: uuid.New(), Title: "high", AvgRating: 5, CompletionRate: 0.9, ViewCount: 500, PublishedAt: time.Now()},
		{ID: uuid.New(), Title: "mid", AvgRating: 3, CompletionRate: 0.4},
		{ID: uuid.New(), Title: "low"},
	}
	recs := engine.Rank(context.Background(), &domain.UserProfile{}, items, 10)
	if len(recs) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Fatal("recommendations not sorted by descending score")
		}
	}
	if recs[0].Content.Title != "high" {
		t.Fatalf("top recommendation = %q, want high-quality item", recs[0].Content.Title)
	}
}

func TestRankSkipsPanickingCandidate(t *testing.T) {
	engine := newTestEngine()
	base := engine.score
	engine.score = func(profile *domain.UserProfile, item *domain.ContentItem) float64 {
		if item.Title == "broken" {
			panic("corrupt candidate")
		}
		return base(profile, item)
	}
	items := []domain.ContentItem{
		{ID: uuid.New(), Title: "first", AvgRating: 4.5},
		{ID: uuid.New(), Title: "broken"},
		{ID: uuid.New(), Title: "second", AvgRating: 4},
	}
	recs := engine.Rank(context.Background(), &domain.UserProfile{}, items, 10)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want the 2 healthy candidates", len(recs))
	}
	for _, rec := range recs {
		if rec.Content.Title == "broken" {
			t.Fatal("panicking candidate must be skipped")
		}
	}
}

func TestRankStableTiesAndLimit(t *testing.T) {
	engine := newTestEngine()
	// Identical items score identically; stable sort keeps input order.
	items := make([]domain.ContentItem, 5)
	for i := range items {
		items[i] = domain.ContentItem{ID: uuid.New(), Title: "same", AvgRating: 4}
	}
	recs := engine.Rank(context.Background(), &domain.UserProfile{}, items, 3)
	if len(recs) != 3 {
		t.Fatalf("got %d recommendations, want limit 3", len(recs))
	}
	for i := range recs {
		if recs[i].Content.ID != items[i].ID {
			t.Fatalf("tie at position %d not resolved by input order", i)
		}
	}
}
