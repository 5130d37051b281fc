package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeScalarsOverride(t *testing.T) {
	base := ExtractedFilters{Query: "biryani", Module: ModuleFood, Confidence: 0.8}
	update := ExtractedFilters{Veg: Bool(true), PriceMax: Float(200), Confidence: 0.8}

	merged := base.Merge(update)

	assert.Equal(t, "biryani", merged.Query, "empty update query keeps the old one")
	assert.Equal(t, ModuleFood, merged.Module)
	assert.True(t, *merged.Veg)
	assert.Equal(t, 200.0, *merged.PriceMax)
}

func TestMergeQueryUpdateWins(t *testing.T) {
	base := ExtractedFilters{Query: "biryani"}
	update := ExtractedFilters{Query: "pizza"}

	assert.Equal(t, "pizza", base.Merge(update).Query)
}

func TestMergeIdempotentUpToConfidence(t *testing.T) {
	f := ExtractedFilters{
		Query:       "cheap veg biryani",
		Module:      ModuleFood,
		Veg:         Bool(true),
		PriceMax:    Float(200),
		Preferences: []string{"spicy"},
		Intent:      IntentSearch,
		Confidence:  0.9,
	}

	merged := f.Merge(f)

	conf := merged.Confidence
	merged.Confidence = f.Confidence
	assert.Equal(t, f, merged, "self-merge changes nothing but confidence")
	assert.LessOrEqual(t, conf, f.Confidence, "confidence never increases on merge")
}

func TestMergeUnionsPreferences(t *testing.T) {
	base := ExtractedFilters{Preferences: []string{"spicy", "halal"}}
	update := ExtractedFilters{Preferences: []string{"Spicy", "jain"}}

	merged := base.Merge(update)

	assert.Equal(t, []string{"spicy", "halal", "jain"}, merged.Preferences)
}

func TestMergeAveragesConfidence(t *testing.T) {
	base := ExtractedFilters{Confidence: 0.9}
	update := ExtractedFilters{Confidence: 0.5}

	assert.InDelta(t, 0.7, base.Merge(update).Confidence, 1e-9)
}

func TestMergeUnsetConfidenceNotAveraged(t *testing.T) {
	fresh := ExtractedFilters{Confidence: 0.9}

	assert.Equal(t, 0.9, ExtractedFilters{}.Merge(fresh).Confidence, "first turn keeps the fresh signal")
	assert.Equal(t, 0.9, fresh.Merge(ExtractedFilters{}).Confidence, "a signal-free update does not dilute")
}

func TestFuseBackfillsOnly(t *testing.T) {
	primary := ExtractedFilters{Query: "biryani", Veg: Bool(false), Confidence: 0.8}
	aux := ExtractedFilters{Query: "other", Veg: Bool(true), StoreName: "Biryani House", Confidence: 0.6}

	fused := primary.Fuse(aux)

	assert.Equal(t, "biryani", fused.Query, "populated fields are never overridden")
	assert.False(t, *fused.Veg)
	assert.Equal(t, "Biryani House", fused.StoreName, "missing fields are back-filled")
}

func TestFuseTakesMinimumConfidence(t *testing.T) {
	primary := ExtractedFilters{Confidence: 0.8}
	aux := ExtractedFilters{Confidence: 0.6}

	assert.Equal(t, 0.6, primary.Fuse(aux).Confidence)
	assert.Equal(t, 0.6, aux.Fuse(primary).Confidence)
}

func TestFuseZeroAuxConfidenceIgnored(t *testing.T) {
	primary := ExtractedFilters{Confidence: 0.8}
	aux := ExtractedFilters{}

	assert.Equal(t, 0.8, primary.Fuse(aux).Confidence)
}

func TestAppliedSummary(t *testing.T) {
	f := ExtractedFilters{
		Veg:                Bool(true),
		PriceMax:           Float(200),
		IsOpen:             Bool(true),
		UseCurrentLocation: true,
		StoreName:          "Paradise",
	}

	applied := f.AppliedSummary()

	assert.Contains(t, applied, "veg only")
	assert.Contains(t, applied, "under 200")
	assert.Contains(t, applied, "open now")
	assert.Contains(t, applied, "near you")
	assert.Contains(t, applied, "from Paradise")
}

func TestHasPriceBound(t *testing.T) {
	assert.False(t, ExtractedFilters{}.HasPriceBound())
	assert.True(t, ExtractedFilters{PriceMax: Float(100)}.HasPriceBound())
	assert.True(t, ExtractedFilters{PriceMin: Float(100)}.HasPriceBound())
}
