package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/querypilot/querypilot/core"
)

// InMemoryStore is a map-backed SessionStore with the same sliding-TTL
// semantics as the redis store. The clock is injectable so expiry is
// testable without real delays.
type InMemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	touched time.Time
}

// InMemoryOptions configure the in-memory session store.
type InMemoryOptions struct {
	// TTL overrides DefaultTTL.
	TTL time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// NewInMemoryStore constructs an in-memory session store.
func NewInMemoryStore(optFns ...func(o *InMemoryOptions)) *InMemoryStore {
	opts := InMemoryOptions{TTL: DefaultTTL, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &InMemoryStore{ttl: opts.TTL, now: opts.Now, entries: make(map[string]memoryEntry)}
}

// Get loads a conversation context, returning (nil, nil) on a miss or after
// the idle TTL has elapsed. A hit refreshes the entry's expiry window.
func (s *InMemoryStore) Get(ctx context.Context, sessionID string) (*core.ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return nil, nil
	}
	if s.now().Sub(e.touched) >= s.ttl {
		delete(s.entries, sessionID)
		return nil, nil
	}

	var convCtx core.ConversationContext
	if err := json.Unmarshal(e.data, &convCtx); err != nil {
		return nil, err
	}
	e.touched = s.now()
	s.entries[sessionID] = e
	return &convCtx, nil
}

// Put serializes the context and resets its expiry window.
func (s *InMemoryStore) Put(ctx context.Context, convCtx *core.ConversationContext) error {
	data, err := json.Marshal(convCtx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[convCtx.SessionID] = memoryEntry{data: data, touched: s.now()}
	return nil
}

// Clear removes the session immediately.
func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

var _ core.SessionStore = (*InMemoryStore)(nil)
