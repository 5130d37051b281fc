package core

import (
	"fmt"
	"strings"
)

// CartItem is a single (item name, quantity) pair extracted from a query or
// carried on a plan step.
type CartItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ExtractedFilters is the canonical structured form of a marketplace query.
// Optional slots use pointers so "unset" is distinguishable from a zero
// value; the dialogue state machine depends on that distinction.
//
// Contract:
//   - Confidence is always populated by the understanding engine
//   - Query is never empty after fusion (falls back to the raw input)
type ExtractedFilters struct {
	Query              string     `json:"query"`
	Module             string     `json:"module,omitempty"`
	Veg                *bool      `json:"veg,omitempty"`
	IsOpen             *bool      `json:"is_open,omitempty"`
	PriceMin           *float64   `json:"price_min,omitempty"`
	PriceMax           *float64   `json:"price_max,omitempty"`
	MinRating          *float64   `json:"min_rating,omitempty"`
	Category           string     `json:"category,omitempty"`
	Brand              string     `json:"brand,omitempty"`
	StoreName          string     `json:"store_name,omitempty"`
	StoreID            string     `json:"store_id,omitempty"`
	Preferences        []string   `json:"preferences,omitempty"`
	CartItems          []CartItem `json:"cart_items,omitempty"`
	Variant            string     `json:"variant,omitempty"`
	UseCurrentLocation bool       `json:"use_current_location,omitempty"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	SortBy             string     `json:"sort_by,omitempty"`
	SortOrder          string     `json:"sort_order,omitempty"`
	EntityType         string     `json:"entity_type,omitempty"` // "item" or "store"
	Intent             string     `json:"intent,omitempty"`
	Confidence         float64    `json:"confidence"`
	CorrectedQuery     string     `json:"corrected_query,omitempty"`
}

// Merge combines accumulated filters with a newer turn's filters and returns
// the result. Scalars from the update win when set; tag lists are unioned;
// query text from the update wins only when non-empty. Confidence is
// averaged so certainty decays toward the mean over a long negotiation
// rather than being replaced by the latest (possibly weak) signal; a zero
// confidence on either side counts as "no signal" and is not averaged in.
//
// Merge is idempotent up to confidence: merging a value with itself yields
// the same filters, and the confidence never increases.
func (f ExtractedFilters) Merge(update ExtractedFilters) ExtractedFilters {
	out := f

	if update.Query != "" {
		out.Query = update.Query
	}
	if update.Module != "" {
		out.Module = update.Module
	}
	if update.Veg != nil {
		out.Veg = update.Veg
	}
	if update.IsOpen != nil {
		out.IsOpen = update.IsOpen
	}
	if update.PriceMin != nil {
		out.PriceMin = update.PriceMin
	}
	if update.PriceMax != nil {
		out.PriceMax = update.PriceMax
	}
	if update.MinRating != nil {
		out.MinRating = update.MinRating
	}
	if update.Category != "" {
		out.Category = update.Category
	}
	if update.Brand != "" {
		out.Brand = update.Brand
	}
	if update.StoreName != "" {
		out.StoreName = update.StoreName
	}
	if update.StoreID != "" {
		out.StoreID = update.StoreID
	}
	if update.Variant != "" {
		out.Variant = update.Variant
	}
	if update.UseCurrentLocation {
		out.UseCurrentLocation = true
	}
	if update.Latitude != nil {
		out.Latitude = update.Latitude
	}
	if update.Longitude != nil {
		out.Longitude = update.Longitude
	}
	if update.SortBy != "" {
		out.SortBy = update.SortBy
	}
	if update.SortOrder != "" {
		out.SortOrder = update.SortOrder
	}
	if update.EntityType != "" {
		out.EntityType = update.EntityType
	}
	if update.Intent != "" {
		out.Intent = update.Intent
	}
	if update.CorrectedQuery != "" {
		out.CorrectedQuery = update.CorrectedQuery
	}
	if len(update.CartItems) > 0 {
		out.CartItems = update.CartItems
	}
	out.Preferences = unionStrings(f.Preferences, update.Preferences)
	switch {
	case f.Confidence == 0:
		// First turn of a session: there is no prior signal to average with.
		out.Confidence = update.Confidence
	case update.Confidence == 0:
		out.Confidence = f.Confidence
	default:
		out.Confidence = (f.Confidence + update.Confidence) / 2
	}
	return out
}

// Fuse back-fills f with fields the auxiliary extraction captured but f is
// missing. Unlike Merge it never overrides a populated field: it is the
// single-call combination of model output with entity-extractor output, so
// the primary path stays authoritative. Confidence takes the minimum of the
// two so a weak signal cannot inflate certainty.
func (f ExtractedFilters) Fuse(aux ExtractedFilters) ExtractedFilters {
	out := f

	if out.Query == "" {
		out.Query = aux.Query
	}
	if out.Module == "" {
		out.Module = aux.Module
	}
	if out.Veg == nil {
		out.Veg = aux.Veg
	}
	if out.IsOpen == nil {
		out.IsOpen = aux.IsOpen
	}
	if out.PriceMin == nil {
		out.PriceMin = aux.PriceMin
	}
	if out.PriceMax == nil {
		out.PriceMax = aux.PriceMax
	}
	if out.MinRating == nil {
		out.MinRating = aux.MinRating
	}
	if out.Category == "" {
		out.Category = aux.Category
	}
	if out.Brand == "" {
		out.Brand = aux.Brand
	}
	if out.StoreName == "" {
		out.StoreName = aux.StoreName
	}
	if out.StoreID == "" {
		out.StoreID = aux.StoreID
	}
	if out.Variant == "" {
		out.Variant = aux.Variant
	}
	if !out.UseCurrentLocation {
		out.UseCurrentLocation = aux.UseCurrentLocation
	}
	if out.EntityType == "" {
		out.EntityType = aux.EntityType
	}
	if len(out.CartItems) == 0 {
		out.CartItems = aux.CartItems
	}
	out.Preferences = unionStrings(f.Preferences, aux.Preferences)
	if aux.Confidence > 0 && (out.Confidence == 0 || aux.Confidence < out.Confidence) {
		out.Confidence = aux.Confidence
	}
	return out
}

// AppliedSummary lists the human-readable filters currently in effect, used
// by the dialogue manager when it enumerates what a search was narrowed by.
func (f ExtractedFilters) AppliedSummary() []string {
	var applied []string
	if f.Veg != nil {
		if *f.Veg {
			applied = append(applied, "veg only")
		} else {
			applied = append(applied, "non-veg")
		}
	}
	if f.PriceMax != nil {
		applied = append(applied, fmt.Sprintf("under %.0f", *f.PriceMax))
	}
	if f.PriceMin != nil {
		applied = append(applied, fmt.Sprintf("above %.0f", *f.PriceMin))
	}
	if f.MinRating != nil {
		applied = append(applied, fmt.Sprintf("rated %.1f+", *f.MinRating))
	}
	if f.IsOpen != nil && *f.IsOpen {
		applied = append(applied, "open now")
	}
	if f.UseCurrentLocation {
		applied = append(applied, "near you")
	}
	if f.StoreName != "" {
		applied = append(applied, "from "+f.StoreName)
	}
	if f.Brand != "" {
		applied = append(applied, f.Brand)
	}
	return applied
}

// HasPriceBound reports whether either price bound is set.
func (f ExtractedFilters) HasPriceBound() bool {
	return f.PriceMin != nil || f.PriceMax != nil
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	for _, s := range b {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// Bool returns a pointer to b. Convenience for building filters literals.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to v. Convenience for building filters literals.
func Float(v float64) *float64 { return &v }
