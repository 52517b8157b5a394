package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
	"github.com/pathwise/pathwise-backend/internal/utils"
)

// VectorCache is the read-through cache for user profile embeddings. It is
// a soft layer: every method degrades to "miss" semantics and the engine
// runs fine with a nil cache.
type VectorCache interface {
	Get(ctx context.Context, userID uuid.UUID) (domain.Vector, error)
	Set(ctx context.Context, userID uuid.UUID, vec domain.Vector) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type vectorCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewVectorCache(log *logger.Logger) (VectorCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := time.Duration(utils.GetEnvAsInt("REDIS_VECTOR_TTL_SECONDS", 3600, log)) * time.Second

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &vectorCache{
		log: log.With("service", "RedisVectorCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func cacheKey(userID uuid.UUID) string {
	return "profile:vec:" + userID.String()
}

func (c *vectorCache) Get(ctx context.Context, userID uuid.UUID) (domain.Vector, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var vec domain.Vector
	if err := json.Unmarshal(raw, &vec); err != nil {
		// A corrupt entry is a miss, not a failure.
		c.log.Warn("Dropping unreadable cached vector", "user_id", userID, "error", err)
		_ = c.rdb.Del(ctx, cacheKey(userID)).Err()
		return nil, nil
	}
	return vec, nil
}

func (c *vectorCache) Set(ctx context.Context, userID uuid.UUID, vec domain.Vector) error {
	if userID == uuid.Nil || vec == nil {
		return nil
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(userID), raw, c.ttl).Err()
}

func (c *vectorCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return nil
	}
	return c.rdb.Del(ctx, cacheKey(userID)).Err()
}

func (c *vectorCache) Close() error {
	return c.rdb.Close()
}
