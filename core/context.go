package core

import "time"

// Slot names the next piece of information the dialogue wants from the user.
type Slot string

// Awaiting slot values, in the order the state machine resolves them.
const (
	SlotQuery         Slot = "query"
	SlotModule        Slot = "module"
	SlotVegPreference Slot = "veg_preference"
	SlotPrice         Slot = "price"
	SlotTiming        Slot = "timing"
	SlotClarification Slot = "clarification"
	SlotNone          Slot = "none"
)

// maxSearchHistory bounds the per-session search record window.
const maxSearchHistory = 10

// Turn is a single utterance within a conversation, with the filters the
// understanding engine produced for it (nil for assistant turns).
type Turn struct {
	Role      string            `json:"role"` // "user" or "assistant"
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
	Filters   *ExtractedFilters `json:"filters,omitempty"`
}

// SearchRecord captures one executed search for the session history.
type SearchRecord struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// ConversationContext is the per-session dialogue state. It is created on the
// first message of a session, mutated on every turn, and reclaimed by the
// session store's TTL once the conversation goes idle.
type ConversationContext struct {
	SessionID      string           `json:"session_id"`
	UserID         string           `json:"user_id,omitempty"`
	Turns          []Turn           `json:"turns"`
	CurrentFilters ExtractedFilters `json:"current_filters"`
	SearchHistory  []SearchRecord   `json:"search_history,omitempty"`
	LastActivity   time.Time        `json:"last_activity"`
	Awaiting       Slot             `json:"awaiting"`
	TurnCount      int              `json:"turn_count"`
}

// NewConversationContext creates an empty context for a session.
func NewConversationContext(sessionID, userID string) *ConversationContext {
	return &ConversationContext{
		SessionID:    sessionID,
		UserID:       userID,
		Awaiting:     SlotNone,
		LastActivity: time.Now().UTC(),
	}
}

// AddTurn appends an utterance and bumps the turn counter and activity time.
func (c *ConversationContext) AddTurn(role, text string, filters *ExtractedFilters) {
	c.Turns = append(c.Turns, Turn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Filters:   filters,
	})
	c.TurnCount++
	c.LastActivity = time.Now().UTC()
}

// AddSearch records an executed search, keeping only the most recent window.
func (c *ConversationContext) AddSearch(query string, resultCount int) {
	c.SearchHistory = append(c.SearchHistory, SearchRecord{
		Query:       query,
		ResultCount: resultCount,
		Timestamp:   time.Now().UTC(),
	})
	if len(c.SearchHistory) > maxSearchHistory {
		c.SearchHistory = c.SearchHistory[len(c.SearchHistory)-maxSearchHistory:]
	}
}

// RecentTurns returns up to n most recent turns, oldest first.
func (c *ConversationContext) RecentTurns(n int) []Turn {
	if len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}
