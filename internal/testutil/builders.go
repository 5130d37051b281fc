package testutil

import (
	"github.com/querypilot/querypilot/core"
)

// FiltersBuilder provides a fluent helper for constructing filter sets in
// tests. Example:
//
//	f := NewFiltersBuilder().Query("biryani").Veg(true).PriceMax(200).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type FiltersBuilder struct {
	f core.ExtractedFilters
}

// NewFiltersBuilder creates a builder with intent "search" and confidence 0.9.
func NewFiltersBuilder() *FiltersBuilder {
	return &FiltersBuilder{f: core.ExtractedFilters{Intent: core.IntentSearch, Confidence: 0.9}}
}

// Query sets the query text (chainable).
func (b *FiltersBuilder) Query(q string) *FiltersBuilder { b.f.Query = q; return b }

// Module sets the marketplace module (chainable).
func (b *FiltersBuilder) Module(m string) *FiltersBuilder { b.f.Module = m; return b }

// Intent sets the intent label (chainable).
func (b *FiltersBuilder) Intent(i string) *FiltersBuilder { b.f.Intent = i; return b }

// Veg sets the veg preference (chainable).
func (b *FiltersBuilder) Veg(v bool) *FiltersBuilder { b.f.Veg = core.Bool(v); return b }

// Open sets the open-now constraint (chainable).
func (b *FiltersBuilder) Open(o bool) *FiltersBuilder { b.f.IsOpen = core.Bool(o); return b }

// PriceMax sets the price ceiling (chainable).
func (b *FiltersBuilder) PriceMax(v float64) *FiltersBuilder { b.f.PriceMax = core.Float(v); return b }

// MinRating sets the rating floor (chainable).
func (b *FiltersBuilder) MinRating(v float64) *FiltersBuilder {
	b.f.MinRating = core.Float(v)
	return b
}

// Store sets the free-text store name (chainable).
func (b *FiltersBuilder) Store(name string) *FiltersBuilder { b.f.StoreName = name; return b }

// NearMe marks the query as location-relative (chainable).
func (b *FiltersBuilder) NearMe() *FiltersBuilder { b.f.UseCurrentLocation = true; return b }

// Confidence overrides the default confidence (chainable).
func (b *FiltersBuilder) Confidence(c float64) *FiltersBuilder { b.f.Confidence = c; return b }

// Build returns the constructed filters.
func (b *FiltersBuilder) Build() core.ExtractedFilters { return b.f }

// ContextBuilder constructs conversation contexts for tests.
type ContextBuilder struct {
	ctx *core.ConversationContext
}

// NewContextBuilder creates a builder for the given session id.
func NewContextBuilder(sessionID string) *ContextBuilder {
	return &ContextBuilder{ctx: core.NewConversationContext(sessionID, "")}
}

// User sets the user id (chainable).
func (b *ContextBuilder) User(id string) *ContextBuilder { b.ctx.UserID = id; return b }

// Filters sets the accumulated filters (chainable).
func (b *ContextBuilder) Filters(f core.ExtractedFilters) *ContextBuilder {
	b.ctx.CurrentFilters = f
	return b
}

// Awaiting sets the awaiting slot (chainable).
func (b *ContextBuilder) Awaiting(s core.Slot) *ContextBuilder { b.ctx.Awaiting = s; return b }

// UserTurn appends a user turn (chainable).
func (b *ContextBuilder) UserTurn(text string) *ContextBuilder {
	b.ctx.AddTurn("user", text, nil)
	return b
}

// AssistantTurn appends an assistant turn (chainable).
func (b *ContextBuilder) AssistantTurn(text string) *ContextBuilder {
	b.ctx.AddTurn("assistant", text, nil)
	return b
}

// Build returns the constructed context.
func (b *ContextBuilder) Build() *core.ConversationContext { return b.ctx }
