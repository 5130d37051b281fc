package reflection

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/analytics"
	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/testutil"
)

func TestShouldReflect(t *testing.T) {
	cases := []struct {
		count      int
		confidence float64
		want       bool
	}{
		{0, 0.9, true},   // zero results always reflect
		{10, 0.4, true},  // low confidence always reflects
		{2, 0.6, true},   // thin results with middling confidence
		{2, 0.8, false},  // thin but confident
		{10, 0.9, false}, // healthy outcome
		{3, 0.6, false},  // three results is no longer thin
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ShouldReflect(tc.count, tc.confidence), "count=%d confidence=%.1f", tc.count, tc.confidence)
	}
}

func TestReflectNoTrigger(t *testing.T) {
	engine := NewEngine(nil, nil)
	filters := testutil.NewFiltersBuilder().Query("biryani").Confidence(0.9).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 10)

	assert.Equal(t, core.ReflectNone, result.Action)
}

func TestRuleReflectRetrySimplifiesQuery(t *testing.T) {
	engine := NewEngine(nil, nil)
	original := "spicy hyderabadi dum biryani extra raita abcxyz123"
	filters := testutil.NewFiltersBuilder().Query(original).Confidence(0.9).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 0)

	require.Equal(t, core.ReflectRetry, result.Action)
	require.NotEmpty(t, result.AlternativeQuery)
	assert.Less(t, len(strings.Fields(result.AlternativeQuery)), len(strings.Fields(original)))
	for _, w := range strings.Fields(result.AlternativeQuery) {
		assert.Contains(t, original, w, "retry query only uses words from the original")
	}
}

func TestRuleReflectShortZeroResultClarifies(t *testing.T) {
	engine := NewEngine(nil, nil)
	filters := testutil.NewFiltersBuilder().Query("abcxyz123").Confidence(0.9).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 0)

	assert.Equal(t, core.ReflectClarify, result.Action)
	assert.Contains(t, result.Question, "abcxyz123")
}

func TestRuleReflectLowConfidenceClarifies(t *testing.T) {
	engine := NewEngine(nil, nil)
	filters := testutil.NewFiltersBuilder().Query("biryani").Confidence(0.3).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 5)

	assert.Equal(t, core.ReflectClarify, result.Action)
	assert.NotEmpty(t, result.Question)
}

func TestRuleReflectThinResultsSuggest(t *testing.T) {
	engine := NewEngine(nil, nil)
	filters := testutil.NewFiltersBuilder().Query("pizza margherita").Confidence(0.6).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 2)

	assert.Equal(t, core.ReflectSuggest, result.Action)
	assert.Equal(t, []string{"burger", "pasta", "sandwich"}, result.Suggestions)
}

func TestCustomSuggestionsExtendDefaults(t *testing.T) {
	engine := NewEngine(nil, nil, func(o *Options) {
		o.Suggestions = map[string][]string{"dosa": {"idli", "uttapam"}}
	})

	custom := engine.Reflect(context.Background(), "s1", testutil.NewFiltersBuilder().Query("dosa").Confidence(0.6).Build(), 2)
	assert.Equal(t, core.ReflectSuggest, custom.Action)
	assert.Equal(t, []string{"idli", "uttapam"}, custom.Suggestions)

	builtin := engine.Reflect(context.Background(), "s2", testutil.NewFiltersBuilder().Query("pizza").Confidence(0.6).Build(), 2)
	assert.Equal(t, []string{"burger", "pasta", "sandwich"}, builtin.Suggestions, "custom entries add to the built-in table instead of replacing it")
}

func TestLLMReflectValidOutputWins(t *testing.T) {
	llm := &testutil.ScriptedLLM{Responses: []string{
		`{"action":"retry","reasoning":"too specific","alternative_query":"biryani"}`,
	}}
	engine := NewEngine(llm, nil)
	filters := testutil.NewFiltersBuilder().Query("spicy hyderabadi biryani").Confidence(0.9).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 0)

	assert.Equal(t, core.ReflectRetry, result.Action)
	assert.Equal(t, "biryani", result.AlternativeQuery)
}

func TestLLMReflectInvalidShapeFallsBackToRules(t *testing.T) {
	// "retry" without alternative_query fails validation.
	llm := &testutil.ScriptedLLM{Responses: []string{`{"action":"retry"}`}}
	engine := NewEngine(llm, nil)
	filters := testutil.NewFiltersBuilder().Query("abcxyz123").Confidence(0.9).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 0)

	assert.Equal(t, core.ReflectClarify, result.Action, "rule fallback for a short zero-result query")
}

func TestLLMReflectErrorFallsBackToRules(t *testing.T) {
	llm := &testutil.ScriptedLLM{Err: errors.New("down")}
	engine := NewEngine(llm, nil)
	filters := testutil.NewFiltersBuilder().Query("coffee latte").Confidence(0.6).Build()

	result := engine.Reflect(context.Background(), "s1", filters, 1)

	assert.Equal(t, core.ReflectSuggest, result.Action)
	assert.Equal(t, []string{"tea", "cold coffee", "milkshake"}, result.Suggestions)
}

func TestReflectAuditsToAnalytics(t *testing.T) {
	store := analytics.NewInMemoryStore()
	engine := NewEngine(nil, store)
	filters := testutil.NewFiltersBuilder().Query("abcxyz123").Confidence(0.9).Build()

	engine.Reflect(context.Background(), "s1", filters, 0)

	records, err := store.TrainingCandidates(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.InteractionReflection, records[0].Kind)
	assert.Equal(t, "s1", records[0].SessionID)
	assert.Equal(t, string(core.ReflectClarify), records[0].Action)
}
