package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/testutil"
	"github.com/querypilot/querypilot/session"
)

func newTestManager() *Manager {
	return NewManager(session.NewInMemoryStore())
}

func TestRespondCannedGreeting(t *testing.T) {
	m := newTestManager()
	convCtx := core.NewConversationContext("s1", "")

	reply := m.Respond(convCtx, core.IntentGreeting, core.SearchResults{}, nil)

	assert.Contains(t, reply.Text, "Hi")
	assert.NotEmpty(t, reply.QuickReplies)
}

func TestRespondZeroResultsCitesPrice(t *testing.T) {
	m := newTestManager()
	convCtx := testutil.NewContextBuilder("s1").
		Filters(testutil.NewFiltersBuilder().Query("biryani").PriceMax(100).Build()).
		Build()

	reply := m.Respond(convCtx, core.IntentSearch, core.SearchResults{}, nil)

	assert.Contains(t, reply.Text, "couldn't find")
	assert.Contains(t, reply.Text, "100", "price ceiling cited as the likely cause")
}

func TestRespondZeroResultsCitesOpenness(t *testing.T) {
	m := newTestManager()
	convCtx := testutil.NewContextBuilder("s1").
		Filters(testutil.NewFiltersBuilder().Query("biryani").Open(true).Build()).
		Build()

	reply := m.Respond(convCtx, core.IntentSearch, core.SearchResults{}, nil)

	assert.Contains(t, reply.Text, "open")
}

func TestRespondZeroResultsFoldsInReflection(t *testing.T) {
	m := newTestManager()
	convCtx := testutil.NewContextBuilder("s1").
		Filters(testutil.NewFiltersBuilder().Query("abcxyz").Build()).
		Build()

	reflection := &core.ReflectionResult{
		Action:   core.ReflectClarify,
		Question: "Could you describe it differently?",
	}
	reply := m.Respond(convCtx, core.IntentSearch, core.SearchResults{}, reflection)
	assert.Equal(t, "Could you describe it differently?", reply.Text)

	reflection = &core.ReflectionResult{
		Action:      core.ReflectSuggest,
		Suggestions: []string{"burger", "pasta"},
	}
	reply = m.Respond(convCtx, core.IntentSearch, core.SearchResults{}, reflection)
	assert.Equal(t, []string{"burger", "pasta"}, reply.QuickReplies)
}

func TestRespondAwaitingSlotFollowUp(t *testing.T) {
	m := newTestManager()
	convCtx := testutil.NewContextBuilder("s1").
		Filters(testutil.NewFiltersBuilder().Query("biryani").Module(core.ModuleFood).Build()).
		Awaiting(core.SlotVegPreference).
		Build()

	reply := m.Respond(convCtx, core.IntentSearch, testutil.NItems(5), nil)

	assert.Contains(t, reply.Text, "Found 5 results")
	assert.Contains(t, reply.Text, "Veg or non-veg?")
	assert.Equal(t, []string{"Veg", "Non-veg", "Both"}, reply.QuickReplies)
}

func TestRespondSummaryEnumeratesFilters(t *testing.T) {
	m := newTestManager()
	convCtx := testutil.NewContextBuilder("s1").
		Filters(testutil.NewFiltersBuilder().Query("biryani").Veg(true).PriceMax(200).Build()).
		Awaiting(core.SlotNone).
		Build()

	reply := m.Respond(convCtx, core.IntentSearch, testutil.NItems(7), nil)

	assert.Contains(t, reply.Text, "Found 7 results")
	assert.Contains(t, reply.Text, "veg only")
	assert.Contains(t, reply.Text, "under 200")
}
