package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/testutil"
	"github.com/querypilot/querypilot/session"
)

func TestLoadCreatesFreshContext(t *testing.T) {
	m := NewManager(session.NewInMemoryStore())

	convCtx, err := m.Load(context.Background(), "s1", "u1")

	require.NoError(t, err)
	assert.Equal(t, "s1", convCtx.SessionID)
	assert.Equal(t, "u1", convCtx.UserID)
	assert.Equal(t, core.SlotNone, convCtx.Awaiting)
	assert.Zero(t, convCtx.TurnCount)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	m := NewManager(session.NewInMemoryStore())
	ctx := context.Background()

	convCtx, err := m.Load(ctx, "s1", "u1")
	require.NoError(t, err)
	m.Absorb(convCtx, "veg biryani", testutil.NewFiltersBuilder().Query("biryani").Module(core.ModuleFood).Veg(true).Build())
	require.NoError(t, m.Save(ctx, convCtx))

	reloaded, err := m.Load(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, convCtx.TurnCount, reloaded.TurnCount)
	assert.Equal(t, convCtx.CurrentFilters, reloaded.CurrentFilters)
	assert.Equal(t, convCtx.Awaiting, reloaded.Awaiting)
}

func TestAbsorbBiryaniThenVeg(t *testing.T) {
	m := NewManager(session.NewInMemoryStore())
	convCtx := core.NewConversationContext("s1", "")

	m.Absorb(convCtx, "biryani", core.ExtractedFilters{
		Query:      "biryani",
		Module:     core.ModuleFood,
		Intent:     core.IntentSearch,
		Confidence: 0.9,
	})
	assert.Equal(t, core.SlotVegPreference, convCtx.Awaiting)

	m.Absorb(convCtx, "veg", core.ExtractedFilters{
		Veg:        core.Bool(true),
		Intent:     core.IntentSearch,
		Confidence: 0.9,
	})

	assert.Equal(t, "biryani", convCtx.CurrentFilters.Query, "turns merge into one filter set")
	require.NotNil(t, convCtx.CurrentFilters.Veg)
	assert.True(t, *convCtx.CurrentFilters.Veg)
	assert.NotEqual(t, core.SlotVegPreference, convCtx.Awaiting, "awaiting advances past veg_preference")
}

func TestAbsorbConversationalIntentSkipsSlotMachine(t *testing.T) {
	m := NewManager(session.NewInMemoryStore())
	convCtx := core.NewConversationContext("s1", "")
	convCtx.CurrentFilters = testutil.NewFiltersBuilder().Query("biryani").Module(core.ModuleFood).Build()

	m.Absorb(convCtx, "thanks!", core.ExtractedFilters{Intent: core.IntentThanks, Confidence: 0.9})

	assert.Equal(t, core.SlotNone, convCtx.Awaiting)
	assert.Equal(t, "biryani", convCtx.CurrentFilters.Query, "small talk never disturbs accumulated filters")
}

func TestEvaluateAwaitingDeterministic(t *testing.T) {
	f := testutil.NewFiltersBuilder().Query("biryani").Module(core.ModuleFood).Build()

	first := EvaluateAwaiting(f)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EvaluateAwaiting(f))
	}
}

func TestEvaluateAwaitingOrder(t *testing.T) {
	cases := []struct {
		name string
		f    core.ExtractedFilters
		want core.Slot
	}{
		{"empty", core.ExtractedFilters{}, core.SlotQuery},
		{"query only", core.ExtractedFilters{Query: "biryani"}, core.SlotModule},
		{
			"food without veg",
			core.ExtractedFilters{Query: "biryani", Module: core.ModuleFood},
			core.SlotVegPreference,
		},
		{
			"veg resolved, no price",
			core.ExtractedFilters{Query: "biryani", Module: core.ModuleFood, Veg: core.Bool(true)},
			core.SlotPrice,
		},
		{
			"non-food skips veg",
			core.ExtractedFilters{Query: "paracetamol", Module: core.ModulePharmacy},
			core.SlotPrice,
		},
		{
			"price resolved, no timing",
			core.ExtractedFilters{Query: "biryani", Module: core.ModuleFood, Veg: core.Bool(true), PriceMax: core.Float(200)},
			core.SlotTiming,
		},
		{
			"movies never ask timing",
			core.ExtractedFilters{Query: "dune", Module: core.ModuleMovie, PriceMax: core.Float(500)},
			core.SlotNone,
		},
		{
			"all resolved",
			core.ExtractedFilters{Query: "biryani", Module: core.ModuleFood, Veg: core.Bool(true), PriceMax: core.Float(200), IsOpen: core.Bool(true)},
			core.SlotNone,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateAwaiting(tc.f))
		})
	}
}

func TestClear(t *testing.T) {
	store := session.NewInMemoryStore()
	m := NewManager(store)
	ctx := context.Background()

	convCtx, _ := m.Load(ctx, "s1", "")
	convCtx.AddTurn("user", "biryani", nil)
	require.NoError(t, m.Save(ctx, convCtx))
	require.NoError(t, m.Clear(ctx, "s1"))

	fresh, err := m.Load(ctx, "s1", "")
	require.NoError(t, err)
	assert.Zero(t, fresh.TurnCount)
}
