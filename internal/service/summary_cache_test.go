package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/dto"
)

func newRedisSummaryCache(t *testing.T) (SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSummaryCache(client, time.Minute, testLogger()), server
}

// store caches a summary at the subject's current generation.
func store(t *testing.T, cache SummaryCache, studentID, subjectID uint, total float64) {
	t.Helper()
	ctx := context.Background()
	generation, ok := cache.Generation(ctx, subjectID)
	require.True(t, ok)
	cache.Set(ctx, dto.SubjectSummaryResponse{StudentID: studentID, SubjectID: subjectID, SubjectTotal: total}, generation)
}

func TestSummaryCacheRoundTripAndSubjectInvalidation(t *testing.T) {
	cache, server := newRedisSummaryCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 1, 10)
	require.False(t, ok)

	for _, key := range [][2]uint{{1, 10}, {2, 10}, {1, 11}} {
		store(t, cache, key[0], key[1], 12.5)
	}

	cached, ok := cache.Get(ctx, 1, 10)
	require.True(t, ok)
	require.True(t, cached.CacheHit)
	require.InDelta(t, 12.5, cached.SubjectTotal, 1e-9)

	server.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, 1, 10)
	require.False(t, ok)

	// the fast-forward expired every key, so repopulate all three
	for _, key := range [][2]uint{{1, 10}, {2, 10}, {1, 11}} {
		store(t, cache, key[0], key[1], 0)
	}
	require.True(t, server.Exists(summaryKey(1, 11)))

	cache.InvalidateSubject(ctx, 10)
	require.False(t, server.Exists(summaryKey(1, 10)))
	require.False(t, server.Exists(summaryKey(2, 10)))
	require.True(t, server.Exists(summaryKey(1, 11)))

	cache.InvalidateStudentSubject(ctx, 1, 11)
	require.False(t, server.Exists(summaryKey(1, 11)))
}

func TestSummaryCacheDropsSummariesComputedBeforeInvalidation(t *testing.T) {
	cache, server := newRedisSummaryCache(t)
	ctx := context.Background()

	for name, invalidate := range map[string]func(){
		"student subject": func() { cache.InvalidateStudentSubject(ctx, 1, 10) },
		"whole subject":   func() { cache.InvalidateSubject(ctx, 10) },
	} {
		t.Run(name, func(t *testing.T) {
			before, ok := cache.Generation(ctx, 10)
			require.True(t, ok)

			invalidate()
			cache.Set(ctx, dto.SubjectSummaryResponse{StudentID: 1, SubjectID: 10, SubjectTotal: 7}, before)
			require.False(t, server.Exists(summaryKey(1, 10)))

			after, ok := cache.Generation(ctx, 10)
			require.True(t, ok)
			require.Greater(t, after, before)

			cache.Set(ctx, dto.SubjectSummaryResponse{StudentID: 1, SubjectID: 10, SubjectTotal: 9.5}, after)
			cached, hit := cache.Get(ctx, 1, 10)
			require.True(t, hit)
			require.InDelta(t, 9.5, cached.SubjectTotal, 1e-9)
		})
	}
}

func TestSummaryCacheWithoutRedisNeverHits(t *testing.T) {
	cache := NewSummaryCache(nil, 0, testLogger())
	ctx := context.Background()

	_, cacheable := cache.Generation(ctx, 1)
	require.False(t, cacheable)
	cache.Set(ctx, dto.SubjectSummaryResponse{StudentID: 1, SubjectID: 1}, 0)
	_, ok := cache.Get(ctx, 1, 1)
	require.False(t, ok)
	cache.InvalidateSubject(ctx, 1)
}
