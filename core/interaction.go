package core

import (
	"time"

	"github.com/google/uuid"
)

// InteractionKind distinguishes the event families appended to analytics.
type InteractionKind string

// Interaction kinds.
const (
	InteractionQuery      InteractionKind = "query"
	InteractionReflection InteractionKind = "reflection"
)

// UserAction is a post-response outcome signal (click, add-to-cart, order)
// patched onto the session's interaction record best-effort.
type UserAction struct {
	Clicked       bool `json:"clicked,omitempty"`
	ClickPosition int  `json:"click_position,omitempty"` // 1-based rank of the clicked result
	AddedToCart   bool `json:"added_to_cart,omitempty"`
	Ordered       bool `json:"ordered,omitempty"`
}

// Positive reports whether the action is a positive outcome signal for
// training-set mining: an order, an add-to-cart, or a click in the top 3.
func (a UserAction) Positive() bool {
	return a.Ordered || a.AddedToCart || (a.Clicked && a.ClickPosition >= 1 && a.ClickPosition <= 3)
}

// InteractionRecord is one query/response/outcome triple. Records are
// write-once and append-only; the only permitted update is the best-effort
// outcome patch keyed by session id.
type InteractionRecord struct {
	ID          string            `json:"id"`
	Kind        InteractionKind   `json:"kind"`
	SessionID   string            `json:"session_id"`
	UserID      string            `json:"user_id,omitempty"`
	Query       string            `json:"query"`
	Intent      string            `json:"intent,omitempty"`
	Filters     *ExtractedFilters `json:"filters,omitempty"`
	Path        string            `json:"path,omitempty"` // "simple" or "complex"
	ResultCount int               `json:"result_count"`
	Confidence  float64           `json:"confidence"`
	Response    string            `json:"response,omitempty"`
	Action      string            `json:"action,omitempty"`    // reflection action, when Kind is reflection
	Reasoning   string            `json:"reasoning,omitempty"` // reflection reasoning
	Outcome     *UserAction       `json:"outcome,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewInteractionID generates a unique id for an interaction record.
func NewInteractionID() string { return uuid.NewString() }

// TrainingSample is the reformatted shape handed to the retraining endpoint.
type TrainingSample struct {
	Text       string            `json:"text"`
	Intent     string            `json:"intent"`
	Entities   *ExtractedFilters `json:"entities,omitempty"`
	IsPositive bool              `json:"is_positive"`
}

// AggregateStats summarizes recorded interactions for the stats endpoint.
type AggregateStats struct {
	TotalInteractions int64            `json:"total_interactions"`
	ByIntent          map[string]int64 `json:"by_intent,omitempty"`
	ZeroResultRate    float64          `json:"zero_result_rate"`
	AvgConfidence     float64          `json:"avg_confidence"`
}
