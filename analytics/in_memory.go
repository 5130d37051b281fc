package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/querypilot/querypilot/core"
)

// InMemoryStore is a map-backed AnalyticsStore with the same merge-on-read
// outcome semantics as the redis store.
type InMemoryStore struct {
	mu           sync.Mutex
	interactions []core.InteractionRecord
	outcomes     map[string]core.UserAction
	memories     map[string][]core.UserMemory
}

// NewInMemoryStore constructs an empty in-memory analytics store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		outcomes: make(map[string]core.UserAction),
		memories: make(map[string][]core.UserMemory),
	}
}

// RecordInteraction appends one record.
func (s *InMemoryStore) RecordInteraction(ctx context.Context, rec core.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, rec)
	return nil
}

// MarkOutcome stores the user action keyed by session id.
func (s *InMemoryStore) MarkOutcome(ctx context.Context, sessionID string, action core.UserAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[sessionID] = action
	return nil
}

// TrainingCandidates returns records at or after since with outcome patches
// merged in.
func (s *InMemoryStore) TrainingCandidates(ctx context.Context, since time.Time) ([]core.InteractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []core.InteractionRecord
	for _, rec := range s.interactions {
		if rec.Timestamp.Before(since) {
			continue
		}
		if rec.Outcome == nil {
			if action, ok := s.outcomes[rec.SessionID]; ok {
				patched := action
				rec.Outcome = &patched
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Stats aggregates over the recorded query interactions.
func (s *InMemoryStore) Stats(ctx context.Context) (core.AggregateStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats core.AggregateStats
	var zero int64
	var confSum float64
	byIntent := make(map[string]int64)

	for _, rec := range s.interactions {
		if rec.Kind != core.InteractionQuery {
			continue
		}
		stats.TotalInteractions++
		if rec.Intent != "" {
			byIntent[rec.Intent]++
		}
		if rec.ResultCount == 0 {
			zero++
		}
		confSum += rec.Confidence
	}
	if stats.TotalInteractions > 0 {
		stats.ByIntent = byIntent
		stats.ZeroResultRate = float64(zero) / float64(stats.TotalInteractions)
		stats.AvgConfidence = confSum / float64(stats.TotalInteractions)
	}
	return stats, nil
}

// AppendMemory appends one memory to the user's list.
func (s *InMemoryStore) AppendMemory(ctx context.Context, userID string, m core.UserMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories[userID] = append(s.memories[userID], m)
	return nil
}

// Memories returns up to limit of the user's most recent memories,
// oldest-first.
func (s *InMemoryStore) Memories(ctx context.Context, userID string, limit int) ([]core.UserMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.memories[userID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]core.UserMemory, len(all))
	copy(out, all)
	return out, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

var _ core.AnalyticsStore = (*InMemoryStore)(nil)
