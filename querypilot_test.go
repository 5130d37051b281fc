package querypilot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/testutil"
)

func TestConverseGreetingSkipsSearch(t *testing.T) {
	search := &testutil.FakeSearch{}
	p := New(func(o *Options) { o.Search = search })

	res, err := p.Converse(context.Background(), "s1", "u1", "hi")

	require.NoError(t, err)
	assert.Equal(t, core.IntentGreeting, res.Intent)
	assert.Contains(t, res.Reply, "Hi")
	assert.Empty(t, search.Searched, "greetings never reach the search executor")
	assert.Empty(t, res.Results.Items)
	assert.Zero(t, res.Results.Total)
	assert.Nil(t, res.Plan)
	assert.Equal(t, core.SlotNone, res.Awaiting)
}

func TestConverseSearchTurn(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.9}}
	search := &testutil.FakeSearch{ResultsByQuery: map[string]core.SearchResults{
		"biryani": testutil.NItems(5),
	}}
	p := New(func(o *Options) {
		o.Classifier = cls
		o.Search = search
	})

	res, err := p.Converse(context.Background(), "s1", "u1", "veg biryani")

	require.NoError(t, err)
	assert.Equal(t, "search_food", res.Intent)
	assert.Equal(t, 5, res.Results.Total)
	assert.Contains(t, res.Reply, "Found 5 results")
	require.NotNil(t, res.Filters.Veg)
	assert.True(t, *res.Filters.Veg)
	assert.Equal(t, core.ModuleFood, res.Filters.Module)
	assert.Nil(t, res.Reflection, "a confident search with results needs no reflection")
	require.Len(t, search.Searched, 1)
}

func TestConverseSlotAnswerRefinesPriorSearch(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.9}}
	search := &testutil.FakeSearch{ResultsByQuery: map[string]core.SearchResults{
		"biryani": testutil.NItems(5),
	}}
	p := New(func(o *Options) {
		o.Classifier = cls
		o.Search = search
	})
	ctx := context.Background()

	_, err := p.Converse(ctx, "s1", "u1", "veg biryani")
	require.NoError(t, err)

	res, err := p.Converse(ctx, "s1", "u1", "under 200")
	require.NoError(t, err)

	assert.Equal(t, "biryani", res.Filters.Query, "a bare slot answer keeps the accumulated query")
	require.NotNil(t, res.Filters.PriceMax)
	assert.Equal(t, 200.0, *res.Filters.PriceMax)
	require.NotNil(t, res.Filters.Veg)
	assert.True(t, *res.Filters.Veg)
	assert.Equal(t, 5, res.Results.Total)
}

func TestConverseMultiTaskExecutesPlan(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.9}}
	search := &testutil.FakeSearch{ResultsByQuery: map[string]core.SearchResults{
		"pizza": testutil.NItems(3),
	}}
	p := New(func(o *Options) {
		o.Classifier = cls
		o.Search = search
	})

	res, err := p.Converse(context.Background(), "s1", "u1", "order pizza and also send a parcel to andheri")

	require.NoError(t, err)
	require.NotNil(t, res.Plan)
	assert.True(t, res.Plan.MultiTask)
	require.NotNil(t, res.Execution)
	assert.True(t, res.Execution.Completed)
	assert.Equal(t, 3, res.Results.Total, "plan step results fold into the turn's result set")
}

func TestConverseRetryReRunsUnderstanding(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.9}}
	ext := &testutil.FixedExtractor{}
	llm := &testutil.ScriptedLLM{Responses: []string{
		`{"action":"retry","reasoning":"query too narrow","alternative_query":"kebab platter"}`,
	}}
	search := &testutil.FakeSearch{ResultsByQuery: map[string]core.SearchResults{
		"kebab": testutil.NItems(4),
	}}
	p := New(func(o *Options) {
		o.Classifier = cls
		o.Extractor = ext
		o.LLM = llm
		o.Search = search
	})

	res, err := p.Converse(context.Background(), "s1", "u1", "cheap special hyderabadi dum biryani feast")

	require.NoError(t, err)
	require.NotNil(t, res.Reflection)
	assert.Equal(t, core.ReflectRetry, res.Reflection.Action)
	require.Len(t, cls.Calls, 2, "the retry runs a full understanding pass")
	assert.Equal(t, "kebab platter", cls.Calls[1])
	require.Len(t, ext.Calls, 2)
	assert.Equal(t, "kebab platter", ext.Calls[1])
	assert.Equal(t, 4, res.Results.Total)
	assert.Equal(t, "kebab platter", res.Filters.Query)
	assert.Nil(t, res.Filters.PriceMax, "filters are re-derived from the alternative query, dropping the ceiling implied by the original phrasing")
}

func TestConverseSingleTaskSkipsPlanner(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.9}}
	llm := &testutil.ScriptedLLM{Responses: []string{"{}"}}
	search := &testutil.FakeSearch{ResultsByQuery: map[string]core.SearchResults{
		"biryani": testutil.NItems(5),
	}}
	p := New(func(o *Options) {
		o.Classifier = cls
		o.LLM = llm
		o.Search = search
	})

	res, err := p.Converse(context.Background(), "s1", "u1", "please get dinner biryani tonight")

	require.NoError(t, err)
	assert.Nil(t, res.Plan)
	assert.Equal(t, 5, res.Results.Total)
	assert.Empty(t, llm.Prompts, "a single-task turn never pays a plan-generation round-trip")
}

func TestVoiceSearchEmptyTranscript(t *testing.T) {
	voice := &testutil.FakeVoice{Transcript: core.Transcript{Text: "", Language: "en"}}
	search := &testutil.FakeSearch{}
	p := New(func(o *Options) {
		o.Voice = voice
		o.Search = search
	})

	res, err := p.VoiceSearch(context.Background(), "s1", "u1", []byte("audio"), "wav", "en")

	require.NoError(t, err)
	assert.Contains(t, res.Turn.Reply, "couldn't hear")
	assert.Empty(t, search.Searched)
	assert.Equal(t, []byte(res.Turn.Reply), res.Audio)
}

func TestVoiceSearchDrivesConversationalTurn(t *testing.T) {
	voice := &testutil.FakeVoice{Transcript: core.Transcript{Text: "hi", Language: "en", Confidence: 0.95}}
	p := New(func(o *Options) { o.Voice = voice })

	res, err := p.VoiceSearch(context.Background(), "s1", "u1", []byte("audio"), "wav", "en")

	require.NoError(t, err)
	assert.Equal(t, core.IntentGreeting, res.Turn.Intent)
	assert.Equal(t, []byte(res.Turn.Reply), res.Audio)
}

func TestVoiceSearchWithoutGateway(t *testing.T) {
	p := New()

	_, err := p.VoiceSearch(context.Background(), "s1", "u1", nil, "wav", "en")

	assert.Error(t, err)
}

func TestConverseRecordsInteraction(t *testing.T) {
	p := New()
	ctx := context.Background()

	_, err := p.Converse(ctx, "s1", "u1", "hi")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		stats, err := p.Stats(ctx)
		return err == nil && stats.TotalInteractions == 1
	}, time.Second, 5*time.Millisecond, "interaction recording is asynchronous")

	stats, err := p.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ByIntent[core.IntentGreeting])
}

func TestSubmitFeedbackRequiresSession(t *testing.T) {
	p := New()

	err := p.SubmitFeedback(context.Background(), "", core.UserAction{Ordered: true})

	assert.Error(t, err)
}

func TestTriggerRetrainWithoutData(t *testing.T) {
	p := New(func(o *Options) { o.Retrainer = &testutil.FakeRetrainer{} })

	_, err := p.TriggerRetrain(context.Background())

	assert.ErrorIs(t, err, core.ErrNotEnoughData)
}

func TestRememberAndProfileRoundTrip(t *testing.T) {
	p := New()
	ctx := context.Background()

	require.NoError(t, p.RememberPreference(ctx, "u1", core.MemoryPreference, "dietary:vegetarian"))

	profile, err := p.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"vegetarian"}, profile.Summary.DietaryRestrictions)
}

func TestHealthWithInMemoryStores(t *testing.T) {
	status := New().Health(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "ok", status.Session)
	assert.Equal(t, "ok", status.Analytics)
}

func TestClearSession(t *testing.T) {
	p := New()
	ctx := context.Background()

	_, err := p.Converse(ctx, "s1", "u1", "hi")
	require.NoError(t, err)
	assert.NoError(t, p.ClearSession(ctx, "s1"))
}

func TestUnderstandQueryStateless(t *testing.T) {
	cls := &testutil.FixedClassifier{Result: core.ClassifierResult{Intent: "search_food", Confidence: 0.9}}
	p := New(func(o *Options) { o.Classifier = cls })

	result := p.UnderstandQuery(context.Background(), "cheap veg biryani")

	assert.Equal(t, "biryani", result.Filters.Query)
	require.NotNil(t, result.Filters.Veg)
	assert.True(t, *result.Filters.Veg)
	require.NotNil(t, result.Filters.PriceMax)
	assert.Equal(t, 200.0, *result.Filters.PriceMax)
}
