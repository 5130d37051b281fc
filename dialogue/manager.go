// Package dialogue owns the multi-turn conversational state machine: it
// merges each turn's understanding into the session's accumulated filters,
// tracks which filter slot is still unresolved, drafts natural-language
// replies with quick-reply suggestions, and persists the conversation
// context to the session store with a sliding TTL.
package dialogue

import (
	"context"
	"fmt"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

// Options configure the dialogue manager.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Manager drives per-session conversational state. All session access is a
// read-then-write of the full context against the external store; the store's
// TTL slides on every write, so idle conversations are reclaimed without a
// cleanup job.
type Manager struct {
	sessions core.SessionStore
	logger   logging.Logger
}

// NewManager constructs a dialogue manager backed by the given session store.
func NewManager(sessions core.SessionStore, optFns ...func(o *Options)) *Manager {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Manager{sessions: sessions, logger: opts.Logger}
}

// Load returns the session's conversation context, creating a fresh one on
// the first message of a session.
func (m *Manager) Load(ctx context.Context, sessionID, userID string) (*core.ConversationContext, error) {
	convCtx, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if convCtx == nil {
		convCtx = core.NewConversationContext(sessionID, userID)
	}
	if convCtx.UserID == "" {
		convCtx.UserID = userID
	}
	return convCtx, nil
}

// Absorb merges a new turn's understanding into the accumulated filters and
// re-evaluates the awaiting slot. Non-search intents short-circuit the state
// machine and never set an awaiting slot. The mutated context is not yet
// persisted; call Save once the turn's assistant reply has been appended.
func (m *Manager) Absorb(convCtx *core.ConversationContext, userText string, fresh core.ExtractedFilters) {
	convCtx.AddTurn("user", userText, &fresh)

	if core.IsConversational(fresh.Intent) {
		convCtx.Awaiting = core.SlotNone
		return
	}

	convCtx.CurrentFilters = convCtx.CurrentFilters.Merge(fresh)
	convCtx.Awaiting = EvaluateAwaiting(convCtx.CurrentFilters)
}

// Save writes the full context back to the session store, sliding its TTL.
func (m *Manager) Save(ctx context.Context, convCtx *core.ConversationContext) error {
	if err := m.sessions.Put(ctx, convCtx); err != nil {
		return fmt.Errorf("save session %s: %w", convCtx.SessionID, err)
	}
	return nil
}

// Clear discards a session's conversation context.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.sessions.Clear(ctx, sessionID)
}

// EvaluateAwaiting computes the next unresolved filter slot for a filter
// set. The rule is evaluated after every merge and is deterministic: a fixed
// input always yields the same slot.
func EvaluateAwaiting(f core.ExtractedFilters) core.Slot {
	switch {
	case f.Query == "":
		return core.SlotQuery
	case f.Module == "":
		return core.SlotModule
	case f.Module == core.ModuleFood && f.Veg == nil:
		return core.SlotVegPreference
	case !f.HasPriceBound():
		return core.SlotPrice
	case f.IsOpen == nil && f.Module != core.ModuleMovie:
		return core.SlotTiming
	default:
		return core.SlotNone
	}
}
