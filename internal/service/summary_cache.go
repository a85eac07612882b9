package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/observability"
)

const summaryScanBatch = 100

var errStaleSummary = errors.New("summary generation moved")

// SummaryCache stores computed subject summaries. Every mutation of grades or activity
// configuration invalidates the affected keys after its transaction commits.
//
// Invalidation also bumps a per-subject generation. Readers take the generation before they
// compute and Set refuses to store when it moved, so a summary computed before a commit never
// lands after that commit's invalidation.
type SummaryCache interface {
	Get(ctx context.Context, studentID, subjectID uint) (dto.SubjectSummaryResponse, bool)
	Generation(ctx context.Context, subjectID uint) (int64, bool)
	Set(ctx context.Context, summary dto.SubjectSummaryResponse, generation int64)
	InvalidateStudentSubject(ctx context.Context, studentID, subjectID uint)
	InvalidateSubject(ctx context.Context, subjectID uint)
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSummaryCache constructs a redis-backed cache. A nil client yields a cache that never hits.
func NewSummaryCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisSummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "summary_cache").Logger(),
	}
}

func summaryKey(studentID, subjectID uint) string {
	return fmt.Sprintf("summary:student:%d:subject:%d", studentID, subjectID)
}

func generationKey(subjectID uint) string {
	return fmt.Sprintf("summary:subject:%d:generation", subjectID)
}

func (c *redisSummaryCache) Get(ctx context.Context, studentID, subjectID uint) (dto.SubjectSummaryResponse, bool) {
	if c.client == nil {
		return dto.SubjectSummaryResponse{}, false
	}

	cached, err := c.client.Get(ctx, summaryKey(studentID, subjectID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("failed to read summary cache")
		}
		observability.SummaryCache().WithLabelValues("miss").Inc()
		return dto.SubjectSummaryResponse{}, false
	}

	var response dto.SubjectSummaryResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		c.logger.Warn().Err(err).Msg("discarding undecodable summary cache entry")
		observability.SummaryCache().WithLabelValues("miss").Inc()
		return dto.SubjectSummaryResponse{}, false
	}

	observability.SummaryCache().WithLabelValues("hit").Inc()
	response.CacheHit = true
	return response, true
}

// Generation reads the invalidation generation of subjectID. ok is false when the cache is
// disabled or unreachable, in which case nothing computed now should be stored.
func (c *redisSummaryCache) Generation(ctx context.Context, subjectID uint) (int64, bool) {
	if c.client == nil {
		return 0, false
	}
	generation, err := c.client.Get(ctx, generationKey(subjectID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		c.logger.Warn().Err(err).Uint("subject_id", subjectID).Msg("failed to read summary generation")
		return 0, false
	}
	return generation, true
}

func (c *redisSummaryCache) Set(ctx context.Context, summary dto.SubjectSummaryResponse, generation int64) {
	if c.client == nil {
		return
	}

	summary.CacheHit = false
	payload, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode summary for cache")
		return
	}

	genKey := generationKey(summary.SubjectID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleSummary
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, summaryKey(summary.StudentID, summary.SubjectID), payload, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleSummary), errors.Is(err, redis.TxFailedErr):
		observability.SummaryCache().WithLabelValues("stale").Inc()
		c.logger.Debug().Uint("student_id", summary.StudentID).Uint("subject_id", summary.SubjectID).Msg("skipped caching summary computed before an invalidation")
	default:
		c.logger.Warn().Err(err).Msg("failed to store summary cache")
	}
}

func (c *redisSummaryCache) bumpGeneration(ctx context.Context, subjectID uint) {
	if err := c.client.Incr(ctx, generationKey(subjectID)).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("subject_id", subjectID).Msg("failed to bump summary generation")
	}
}

func (c *redisSummaryCache) InvalidateStudentSubject(ctx context.Context, studentID, subjectID uint) {
	if c.client == nil {
		return
	}
	c.bumpGeneration(ctx, subjectID)
	if err := c.client.Del(ctx, summaryKey(studentID, subjectID)).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("student_id", studentID).Uint("subject_id", subjectID).Msg("failed to invalidate summary cache")
	}
}

func (c *redisSummaryCache) InvalidateSubject(ctx context.Context, subjectID uint) {
	if c.client == nil {
		return
	}
	c.bumpGeneration(ctx, subjectID)

	pattern := fmt.Sprintf("summary:student:*:subject:%d", subjectID)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, summaryScanBatch).Result()
		if err != nil {
			c.logger.Warn().Err(err).Uint("subject_id", subjectID).Msg("failed to scan summary cache")
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn().Err(err).Uint("subject_id", subjectID).Msg("failed to invalidate summary cache")
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
