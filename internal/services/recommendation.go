package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pathwise/pathwise-backend/internal/apperr"
	redisclient "github.com/pathwise/pathwise-backend/internal/clients/redis"
	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/embedding"
	"github.com/pathwise/pathwise-backend/internal/logger"
	"github.com/pathwise/pathwise-backend/internal/recommend"
	"github.com/pathwise/pathwise-backend/internal/repos"
)

// Interaction nudge weights: base engagement plus bonuses for completion,
// a high rating, and watching most of the content. The decay constant is
// fixed; the blended vector is allowed to drift in magnitude.
const (
	interactionBaseWeight      = 0.05
	interactionCompletedBonus  = 0.10
	interactionRatingBonus     = 0.05
	interactionWatchTimeBonus  = 0.05
	interactionDecay           = 0.95
	watchTimeThresholdFraction = 0.8
)

// candidateScanLimit bounds the source scan handed to the selector. Wider
// than the candidate ceiling so hard filters do not starve the set.
const candidateScanLimit = 5000

// Options are the recognized recommendation request options.
type Options struct {
	Limit              int
	ExcludeViewed      bool
	ContentTypes       []string
	Difficulty         string
	MaxDurationSeconds int
}

type RecommendationService interface {
	GetPersonalizedRecommendations(ctx context.Context, userID uuid.UUID, opts Options) ([]domain.Recommendation, error)
	GetTrendingWithPersonalization(ctx context.Context, userID *uuid.UUID, opts Options) ([]domain.ContentItem, error)
	RecordInteraction(ctx context.Context, userID, contentID uuid.UUID, in domain.Interaction) error
	RegenerateProfileEmbedding(ctx context.Context, userID uuid.UUID) (bool, error)
}

type recommendationService struct {
	db              *gorm.DB
	log             *logger.Logger
	userProfileRepo repos.UserProfileRepo
	contentRepo     repos.ContentRepo
	interactionRepo repos.InteractionRepo
	cache           redisclient.VectorCache // nil when redis is absent
	codec           *embedding.Codec
	selector        *recommend.CandidateSelector
	engine          *recommend.ScoringEngine
	now             func() time.Time
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	userProfileRepo repos.UserProfileRepo,
	contentRepo repos.ContentRepo,
	interactionRepo repos.InteractionRepo,
	cache redisclient.VectorCache,
	codec *embedding.Codec,
	selector *recommend.CandidateSelector,
	engine *recommend.ScoringEngine,
) RecommendationService {
	return &recommendationService{
		db:              db,
		log:             log.With("service", "RecommendationService"),
		userProfileRepo: userProfileRepo,
		contentRepo:     contentRepo,
		interactionRepo: interactionRepo,
		cache:           cache,
		codec:           codec,
		selector:        selector,
		engine:          engine,
		now:             time.Now,
	}
}

func (s *recommendationService) GetPersonalizedRecommendations(ctx context.Context, userID uuid.UUID, opts Options) ([]domain.Recommendation, error) {
	profile, err := s.userProfileRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.ErrNotFound
	}

	profile.Embedding = s.ensureProfileVector(ctx, profile)

	items, err := s.contentRepo.ListForScan(ctx, nil, candidateScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}

	filters := recommend.Filters{
		ContentTypes:       opts.ContentTypes,
		Difficulty:         opts.Difficulty,
		MaxDurationSeconds: opts.MaxDurationSeconds,
	}
	if opts.ExcludeViewed {
		viewed, err := s.interactionRepo.ListContentIDsByUser(ctx, nil, userID)
		if err != nil {
			s.log.Warn("Could not load view history, skipping exclude-viewed", "user_id", userID, "error", err)
		} else if len(viewed) > 0 {
			exclude := make(map[uuid.UUID]bool, len(viewed))
			for _, id := range viewed {
				exclude[id] = true
			}
			filters.ExcludeContentIDs = exclude
		}
	}

	candidates := s.selector.Select(profile, items, filters)
	s.ensureContentVectors(ctx, candidates)

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	recs := s.engine.Rank(ctx, profile, candidates, limit)
	now := s.now()
	for i := range recs {
		recs[i].Reasons = recommend.Reasons(profile, &recs[i].Content, recs[i].Score, now)
	}
	return recs, nil
}

func (s *recommendationService) GetTrendingWithPersonalization(ctx context.Context, userID *uuid.UUID, opts Options) ([]domain.ContentItem, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	items, err := s.contentRepo.ListTrending(ctx, nil, limit*3, opts.ContentTypes)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	if userID == nil || *userID == uuid.Nil {
		if len(items) > limit {
			items = items[:limit]
		}
		return items, nil
	}

	profile, err := s.userProfileRepo.GetByID(ctx, nil, *userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.ErrNotFound
	}
	profile.Embedding = s.ensureProfileVector(ctx, profile)
	s.ensureContentVectors(ctx, items)

	// Blend: rating on its stored 0..5 scale x0.6, personalized x0.4. The
	// scales are deliberately uneven; personalization reorders near-ties,
	// it does not outvote the rating.
	blended := make([]float64, len(items))
	for i := range items {
		blended[i] = items[i].AvgRating*0.6 + s.engine.Score(profile, &items[i])*0.4
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return blended[order[a]] > blended[order[b]] })
	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]domain.ContentItem, 0, len(order))
	for _, i := range order {
		out = append(out, items[i])
	}
	return out, nil
}

func (s *recommendationService) RecordInteraction(ctx context.Context, userID, contentID uuid.UUID, in domain.Interaction) error {
	profile, err := s.userProfileRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return apperr.ErrNotFound
	}
	content, err := s.contentRepo.GetByID(ctx, nil, contentID)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	if content == nil {
		return apperr.ErrNotFound
	}

	row := &domain.UserInteraction{
		UserID:           userID,
		ContentID:        contentID,
		Rating:           in.Rating,
		TimeSpentSeconds: in.TimeSpentSeconds,
		Completed:        in.Completed,
	}
	if err := s.interactionRepo.Create(ctx, nil, row); err != nil {
		return fmt.Errorf("persist interaction: %w", err)
	}
	if err := s.contentRepo.IncrementViewCount(ctx, nil, contentID); err != nil {
		s.log.Warn("Could not bump view count", "content_id", contentID, "error", err)
	}

	delta := content.Embedding
	if delta == nil {
		delta = s.codec.EmbedContent(ctx, content)
		if err := s.contentRepo.SaveEmbedding(ctx, nil, contentID, delta); err != nil {
			s.log.Warn("Could not persist content embedding", "content_id", contentID, "error", err)
		}
	}

	current := s.ensureProfileVector(ctx, profile)
	weight := interactionWeight(content, in)
	updated, blended := embedding.IncrementalUpdate(current, delta, weight, interactionDecay)
	if !blended && current != nil {
		s.log.Warn("Embedding dimension mismatch, replacing user vector",
			"user_id", userID, "current_dims", len(current), "delta_dims", len(delta))
	}
	if updated == nil {
		return nil
	}
	if err := s.userProfileRepo.SaveEmbedding(ctx, nil, userID, updated); err != nil {
		return fmt.Errorf("save user embedding: %w", err)
	}
	s.cacheSet(ctx, userID, updated)
	return nil
}

func (s *recommendationService) RegenerateProfileEmbedding(ctx context.Context, userID uuid.UUID) (bool, error) {
	profile, err := s.userProfileRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return false, apperr.ErrNotFound
	}

	text := embedding.BuildProfileText(profile)
	if text == "" {
		// Nothing to embed. The stored embedding stays as-is; drop the
		// cached copy so reads fall through to the store.
		s.cacheInvalidate(ctx, userID)
		return false, nil
	}
	vec := s.codec.EmbedText(ctx, text)
	if err := s.userProfileRepo.SaveEmbedding(ctx, nil, userID, vec); err != nil {
		return false, fmt.Errorf("save user embedding: %w", err)
	}
	s.cacheSet(ctx, userID, vec)
	return true, nil
}

// ensureProfileVector resolves the user's embedding: cache, then store,
// then full generation from profile text. An unembeddable profile (no
// populated fields) stays nil — callers score with a neutral similarity.
func (s *recommendationService) ensureProfileVector(ctx context.Context, profile *domain.UserProfile) domain.Vector {
	if s.cache != nil {
		vec, err := s.cache.Get(ctx, profile.ID)
		if err != nil {
			s.log.Warn("Vector cache read failed", "user_id", profile.ID, "error", err)
		} else if vec != nil {
			return vec
		}
	}
	if profile.Embedding != nil {
		s.cacheSet(ctx, profile.ID, profile.Embedding)
		return profile.Embedding
	}

	text := embedding.BuildProfileText(profile)
	if text == "" {
		return nil
	}
	vec := s.codec.EmbedText(ctx, text)
	if err := s.userProfileRepo.SaveEmbedding(ctx, nil, profile.ID, vec); err != nil {
		s.log.Warn("Could not persist user embedding", "user_id", profile.ID, "error", err)
	}
	s.cacheSet(ctx, profile.ID, vec)
	return vec
}

// ensureContentVectors backfills missing content embeddings in place so the
// similarity sub-score has both sides. Persisting is best-effort.
func (s *recommendationService) ensureContentVectors(ctx context.Context, items []domain.ContentItem) {
	for i := range items {
		if items[i].Embedding != nil {
			continue
		}
		vec := s.codec.EmbedContent(ctx, &items[i])
		items[i].Embedding = vec
		if err := s.contentRepo.SaveEmbedding(ctx, nil, items[i].ID, vec); err != nil {
			s.log.Warn("Could not persist content embedding", "content_id", items[i].ID, "error", err)
		}
	}
}

func (s *recommendationService) cacheSet(ctx context.Context, userID uuid.UUID, vec domain.Vector) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, userID, vec); err != nil {
		s.log.Warn("Vector cache write failed", "user_id", userID, "error", err)
	}
}

func (s *recommendationService) cacheInvalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("Vector cache invalidate failed", "user_id", userID, "error", err)
	}
}

func interactionWeight(content *domain.ContentItem, in domain.Interaction) float64 {
	weight := interactionBaseWeight
	if in.Completed {
		weight += interactionCompletedBonus
	}
	if in.Rating != nil && *in.Rating >= 4 {
		weight += interactionRatingBonus
	}
	if in.TimeSpentSeconds != nil && content.DurationSeconds > 0 {
		if float64(*in.TimeSpentSeconds) > watchTimeThresholdFraction*float64(content.DurationSeconds) {
			weight += interactionWatchTimeBonus
		}
	}
	return weight
}
