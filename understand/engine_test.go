package understand

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/testutil"
)

func newFastEngine(cls *testutil.FixedClassifier, ext *testutil.FixedExtractor) *Engine {
	return NewEngine(cls, ext, nil)
}

func TestUnderstandCheapVegBiryaniNearMe(t *testing.T) {
	llm := &testutil.ScriptedLLM{Responses: []string{
		`{"query":"biryani","module":"food","veg":true,"price_max":150,` +
			`"use_current_location":true,"intent":"search","confidence":0.9}`,
	}}
	ext := &testutil.FixedExtractor{Entities: core.Entities{Foods: []string{"biryani"}}}
	engine := NewEngine(&testutil.FixedClassifier{}, ext, llm)

	result := engine.Understand(context.Background(), "cheap veg biryani near me", nil)

	assert.Equal(t, PathComplex, result.Path)
	assert.Contains(t, result.Filters.Query, "biryani")
	require.NotNil(t, result.Filters.Veg)
	assert.True(t, *result.Filters.Veg)
	require.NotNil(t, result.Filters.PriceMax)
	assert.LessOrEqual(t, *result.Filters.PriceMax, 200.0)
	assert.True(t, result.Filters.UseCurrentLocation)
	assert.Greater(t, result.Filters.Confidence, 0.8)
}

func TestUnderstandShortQueryNeverCallsLLM(t *testing.T) {
	llm := &testutil.ScriptedLLM{Responses: []string{`{"query":"x"}`}}
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.85}}
	engine := NewEngine(cls, &testutil.FixedExtractor{}, llm)

	result := engine.Understand(context.Background(), "veg biryani", nil)

	assert.Equal(t, PathSimple, result.Path)
	assert.Empty(t, llm.Prompts, "three words or fewer must not invoke the complex adapter")
	assert.Equal(t, core.ModuleFood, result.Filters.Module)
	assert.Equal(t, 0.85, result.Filters.Confidence)
}

func TestUnderstandClassifierFailureDegrades(t *testing.T) {
	cls := &testutil.FixedClassifier{Err: errors.New("service down")}
	engine := newFastEngine(cls, &testutil.FixedExtractor{})

	result := engine.Understand(context.Background(), "biryani", nil)

	// Degraded classification keeps the query usable at zero confidence.
	assert.Equal(t, core.IntentUnknown, result.Filters.Intent)
	assert.Equal(t, 0.0, result.Filters.Confidence)
	assert.Equal(t, "biryani", result.Filters.Query)
}

func TestUnderstandSmallTalkRescue(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: core.IntentUnknown}}
	engine := newFastEngine(cls, &testutil.FixedExtractor{})

	result := engine.Understand(context.Background(), "hi", nil)

	assert.Equal(t, core.IntentGreeting, result.Filters.Intent)
	assert.Equal(t, 0.9, result.Filters.Confidence)
}

func TestUnderstandLLMFailureFallsBack(t *testing.T) {
	llm := &testutil.ScriptedLLM{Err: errors.New("timeout")}
	engine := NewEngine(&testutil.FixedClassifier{}, &testutil.FixedExtractor{}, llm)

	result := engine.Understand(context.Background(), "cheap veg biryani near me", nil)

	assert.Equal(t, PathComplex, result.Path)
	assert.Equal(t, core.IntentSearch, result.Filters.Intent)
	assert.Equal(t, 0.5, result.Filters.Confidence, "fallback parser confidence")
	assert.Contains(t, result.Filters.Query, "biryani")
	require.NotNil(t, result.Filters.Veg)
	assert.True(t, *result.Filters.Veg)
}

func TestUnderstandUnparseableLLMOutputFallsBack(t *testing.T) {
	llm := &testutil.ScriptedLLM{Responses: []string{"I think the user wants food."}}
	engine := NewEngine(&testutil.FixedClassifier{}, &testutil.FixedExtractor{}, llm)

	result := engine.Understand(context.Background(), "cheap veg biryani near me", nil)

	assert.Equal(t, 0.5, result.Filters.Confidence)
	assert.Equal(t, core.IntentSearch, result.Filters.Intent)
}

func TestUnderstandResolvesStore(t *testing.T) {
	search := &testutil.FakeSearch{Stores: map[string]core.StoreMatch{
		"paradise": {StoreID: "store-42", Name: "Paradise", Score: 0.92},
	}}
	ext := &testutil.FixedExtractor{Entities: core.Entities{
		Foods:     []string{"biryani"},
		StoreName: "paradise",
		Quantity:  "2",
	}}
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "order_food", Confidence: 0.9}}
	engine := NewEngine(cls, ext, nil, func(o *Options) { o.Resolver = search })

	result := engine.Understand(context.Background(), "two biryani from paradise", nil)

	assert.Equal(t, "store-42", result.Filters.StoreID)
}

func TestUnderstandWeakStoreMatchIgnored(t *testing.T) {
	search := &testutil.FakeSearch{Stores: map[string]core.StoreMatch{
		"paradise": {StoreID: "store-42", Score: 0.3},
	}}
	ext := &testutil.FixedExtractor{Entities: core.Entities{StoreName: "paradise"}}
	engine := NewEngine(&testutil.FixedClassifier{}, ext, nil, func(o *Options) { o.Resolver = search })

	result := engine.Understand(context.Background(), "paradise", nil)

	assert.Empty(t, result.Filters.StoreID)
}

func TestUnderstandQueryNeverEmpty(t *testing.T) {
	engine := newFastEngine(&testutil.FixedClassifier{}, &testutil.FixedExtractor{})

	result := engine.Understand(context.Background(), "please find me some", nil)

	assert.NotEmpty(t, result.Filters.Query)
}

func TestUnderstandSlotAnswerKeepsSessionQuery(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.85}}
	engine := newFastEngine(cls, &testutil.FixedExtractor{})
	convCtx := core.NewConversationContext("s1", "")
	convCtx.CurrentFilters.Query = "biryani"

	result := engine.Understand(context.Background(), "under 200", convCtx)

	assert.Equal(t, "biryani", result.Filters.Query, "a pure slot answer inherits the accumulated query")
	require.NotNil(t, result.Filters.PriceMax)
	assert.Equal(t, 200.0, *result.Filters.PriceMax)
}
