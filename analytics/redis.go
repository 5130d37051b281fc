// Package analytics provides AnalyticsStore implementations: a redis-backed
// store for production and an in-memory store for tests and development.
// Interaction records are append-only; the only permitted mutation is the
// best-effort outcome patch, which lives in a side hash keyed by session id
// and is merged back into records on read.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/querypilot/querypilot/core"
)

const (
	interactionsKey  = "analytics:interactions"
	outcomesKey      = "analytics:outcomes"
	totalKey         = "analytics:stats:total"
	byIntentKey      = "analytics:stats:by_intent"
	zeroResultsKey   = "analytics:stats:zero_results"
	confidenceSumKey = "analytics:stats:confidence_sum"

	// interactionsCap bounds the raw record list; training extraction only
	// ever looks back 7 days, so older records are dropped.
	interactionsCap = 20000

	memoriesKeyPrefix = "analytics:memories:"
)

// RedisStore persists interactions, outcome patches, and user memories in
// redis. Aggregate stats are maintained incrementally as counters so the
// stats read never scans the record list.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// RecordInteraction appends one record and bumps the aggregate counters.
func (s *RedisStore) RecordInteraction(ctx context.Context, rec core.InteractionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, interactionsKey, data)
	pipe.LTrim(ctx, interactionsKey, -interactionsCap, -1)
	if rec.Kind == core.InteractionQuery {
		pipe.Incr(ctx, totalKey)
		if rec.Intent != "" {
			pipe.HIncrBy(ctx, byIntentKey, rec.Intent, 1)
		}
		if rec.ResultCount == 0 {
			pipe.Incr(ctx, zeroResultsKey)
		}
		pipe.IncrByFloat(ctx, confidenceSumKey, rec.Confidence)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// MarkOutcome stores the user action in the outcome hash keyed by session
// id. Records themselves are never rewritten; reads merge the patch in.
func (s *RedisStore) MarkOutcome(ctx context.Context, sessionID string, action core.UserAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := s.client.HSet(ctx, outcomesKey, sessionID, data).Err(); err != nil {
		return fmt.Errorf("mark outcome: %w", err)
	}
	return nil
}

// TrainingCandidates returns records at or after since, with any outcome
// patch for the record's session merged in.
func (s *RedisStore) TrainingCandidates(ctx context.Context, since time.Time) ([]core.InteractionRecord, error) {
	raw, err := s.client.LRange(ctx, interactionsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	outcomes, err := s.client.HGetAll(ctx, outcomesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}

	var records []core.InteractionRecord
	for _, item := range raw {
		var rec core.InteractionRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		if rec.Timestamp.Before(since) {
			continue
		}
		if rec.Outcome == nil {
			if patch, ok := outcomes[rec.SessionID]; ok {
				var action core.UserAction
				if err := json.Unmarshal([]byte(patch), &action); err == nil {
					rec.Outcome = &action
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Stats reads the incrementally maintained counters.
func (s *RedisStore) Stats(ctx context.Context) (core.AggregateStats, error) {
	total, err := s.client.Get(ctx, totalKey).Int64()
	if err != nil && err != redis.Nil {
		return core.AggregateStats{}, fmt.Errorf("read stats: %w", err)
	}
	stats := core.AggregateStats{TotalInteractions: total}
	if total == 0 {
		return stats, nil
	}

	byIntent, err := s.client.HGetAll(ctx, byIntentKey).Result()
	if err != nil {
		return core.AggregateStats{}, fmt.Errorf("read intent counts: %w", err)
	}
	stats.ByIntent = make(map[string]int64, len(byIntent))
	for intent, count := range byIntent {
		n, _ := strconv.ParseInt(count, 10, 64)
		stats.ByIntent[intent] = n
	}

	zero, err := s.client.Get(ctx, zeroResultsKey).Int64()
	if err != nil && err != redis.Nil {
		return core.AggregateStats{}, fmt.Errorf("read zero-result count: %w", err)
	}
	stats.ZeroResultRate = float64(zero) / float64(total)

	confSum, err := s.client.Get(ctx, confidenceSumKey).Float64()
	if err != nil && err != redis.Nil {
		return core.AggregateStats{}, fmt.Errorf("read confidence sum: %w", err)
	}
	stats.AvgConfidence = confSum / float64(total)
	return stats, nil
}

// AppendMemory pushes one memory onto the user's list.
func (s *RedisStore) AppendMemory(ctx context.Context, userID string, m core.UserMemory) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	if err := s.client.RPush(ctx, memoriesKeyPrefix+userID, data).Err(); err != nil {
		return fmt.Errorf("append memory: %w", err)
	}
	return nil
}

// Memories returns up to limit of the user's most recent memories,
// oldest-first.
func (s *RedisStore) Memories(ctx context.Context, userID string, limit int) ([]core.UserMemory, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := s.client.LRange(ctx, memoriesKeyPrefix+userID, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read memories: %w", err)
	}
	memories := make([]core.UserMemory, 0, len(raw))
	for _, item := range raw {
		var m core.UserMemory
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		memories = append(memories, m)
	}
	return memories, nil
}

// Ping checks redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ core.AnalyticsStore = (*RedisStore)(nil)
