package core

import "time"

// MemoryType categorizes a remembered fact about a user.
type MemoryType string

// Memory categories.
const (
	MemoryPreference   MemoryType = "preference"
	MemoryFact         MemoryType = "fact"
	MemoryOrderHistory MemoryType = "order_history"
	MemoryFeedback     MemoryType = "feedback"
)

// UserMemory is a single long-lived fact derived from conversation text or
// an order outcome. Memories are append-only; they are never mutated.
type UserMemory struct {
	Type       MemoryType `json:"type"`
	Content    string     `json:"content"`
	Confidence float64    `json:"confidence"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PreferenceSummary is derived from the full memory list on each profile
// read. It is never stored; recomputation keeps it consistent with the
// append-only memory log.
type PreferenceSummary struct {
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	FavoriteCategories  []string `json:"favorite_categories,omitempty"`
	PreferredStores     []string `json:"preferred_stores,omitempty"`
	PriceTier           string   `json:"price_tier,omitempty"` // budget / standard / premium
}

// UserProfile aggregates a bounded recent window of memories plus the
// derived preference summary.
type UserProfile struct {
	UserID   string            `json:"user_id"`
	Memories []UserMemory      `json:"memories"`
	Summary  PreferenceSummary `json:"summary"`
}
