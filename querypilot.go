// Package querypilot provides a high-level façade over the query
// understanding, dialogue, reflection, planning, user-memory and learning
// engines. Most applications interact with this package by:
//  1. Creating a Pilot via New() (wiring the external AI service adapters,
//     optionally overriding the default in-memory stores)
//  2. Driving conversations through Converse or VoiceSearch
//  3. Feeding outcome signals back through SubmitFeedback
//
// All defaults are safe for local development and testing; production
// deployments supply the redis-backed stores and a structured logger.
package querypilot

import (
	"context"
	"fmt"
	"time"

	"github.com/querypilot/querypilot/analytics"
	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/dialogue"
	"github.com/querypilot/querypilot/learning"
	"github.com/querypilot/querypilot/logging"
	"github.com/querypilot/querypilot/planning"
	"github.com/querypilot/querypilot/reflection"
	"github.com/querypilot/querypilot/session"
	"github.com/querypilot/querypilot/understand"
	"github.com/querypilot/querypilot/usermemory"
)

// Options configures the Pilot instance.
type Options struct {
	// External AI service adapters. Classifier and Extractor degrade to
	// no-op implementations when nil; LLM may be nil, in which case the
	// complex path, reflection and planning rely on rule fallbacks only.
	Classifier core.IntentClassifier
	Extractor  core.EntityExtractor
	LLM        core.LanguageModel
	Search     core.SearchExecutor
	Carts      core.CartBuilder
	Voice      core.VoiceGateway
	Retrainer  core.Retrainer

	// Stores (default to in-memory implementations if not provided).
	SessionStore   core.SessionStore
	AnalyticsStore core.AnalyticsStore

	// Suggestions extends the reflection substitute table; same-key entries
	// override the built-ins.
	Suggestions map[string][]string

	// ProfileCacheTTL overrides the user-profile read cache TTL.
	ProfileCacheTTL time.Duration

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Pilot is the high-level façade aggregating the engines and services.
type Pilot struct {
	understand *understand.Engine
	dialogue   *dialogue.Manager
	reflection *reflection.Engine
	planner    *planning.Planner
	executor   *planning.Executor
	memory     *usermemory.Store
	learning   *learning.Loop
	search     core.SearchExecutor
	carts      core.CartBuilder
	voice      core.VoiceGateway
	sessions   core.SessionStore
	analytics  core.AnalyticsStore
	logger     logging.Logger
}

// New creates a Pilot with optional overrides. Any unset store is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Pilot {
	opts := Options{
		SessionStore:   session.NewInMemoryStore(),
		AnalyticsStore: analytics.NewInMemoryStore(),
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.AnalyticsStore == nil {
		opts.AnalyticsStore = analytics.NewInMemoryStore()
	}
	if opts.Classifier == nil {
		opts.Classifier = noopClassifier{}
	}
	if opts.Extractor == nil {
		opts.Extractor = noopExtractor{}
	}

	return &Pilot{
		understand: understand.NewEngine(opts.Classifier, opts.Extractor, opts.LLM, func(o *understand.Options) {
			o.Resolver = opts.Search
			o.Logger = opts.Logger
		}),
		dialogue: dialogue.NewManager(opts.SessionStore, func(o *dialogue.Options) {
			o.Logger = opts.Logger
		}),
		reflection: reflection.NewEngine(opts.LLM, opts.AnalyticsStore, func(o *reflection.Options) {
			o.Logger = opts.Logger
			o.Suggestions = opts.Suggestions
		}),
		planner: planning.NewPlanner(opts.LLM, func(o *planning.Options) {
			o.Logger = opts.Logger
		}),
		executor: planning.NewExecutor(opts.Logger),
		memory: usermemory.NewStore(opts.AnalyticsStore, func(o *usermemory.Options) {
			o.Logger = opts.Logger
			o.CacheTTL = opts.ProfileCacheTTL
		}),
		learning: learning.NewLoop(opts.AnalyticsStore, opts.Retrainer, func(o *learning.Options) {
			o.Logger = opts.Logger
		}),
		search:    opts.Search,
		carts:     opts.Carts,
		voice:     opts.Voice,
		sessions:  opts.SessionStore,
		analytics: opts.AnalyticsStore,
		logger:    opts.Logger,
	}
}

// UnderstandQuery parses a free-text query into structured filters without
// touching any session state.
func (p *Pilot) UnderstandQuery(ctx context.Context, query string) understand.Result {
	return p.understand.Understand(ctx, query, nil)
}

// ConverseResult is one completed conversational turn.
type ConverseResult struct {
	SessionID    string                 `json:"session_id"`
	Reply        string                 `json:"reply"`
	QuickReplies []string               `json:"quick_replies,omitempty"`
	Intent       string                 `json:"intent"`
	Filters      core.ExtractedFilters  `json:"filters"`
	Results      core.SearchResults     `json:"results"`
	Awaiting     core.Slot              `json:"awaiting"`
	Plan         *core.ExecutionPlan    `json:"plan,omitempty"`
	Execution    *core.ExecutionResult  `json:"execution,omitempty"`
	Reflection   *core.ReflectionResult `json:"reflection,omitempty"`
	Path         string                 `json:"path"`
}

// Converse drives one full conversational turn: load session, understand,
// absorb into dialogue state, plan and execute for multi-task messages,
// search, reflect on poor outcomes (with a single bounded retry), draft the
// reply, record the interaction, and persist the session.
func (p *Pilot) Converse(ctx context.Context, sessionID, userID, text string) (ConverseResult, error) {
	logger := p.logger
	if sl, ok := logger.(logging.SessionContextLogger); ok {
		logger = sl.WithSession(sessionID, userID)
	}

	convCtx, err := p.dialogue.Load(ctx, sessionID, userID)
	if err != nil {
		return ConverseResult{}, err
	}

	understood := p.understand.Understand(ctx, text, convCtx)
	p.dialogue.Absorb(convCtx, text, understood.Filters)
	p.memory.Observe(ctx, userID, text)

	result := ConverseResult{
		SessionID: sessionID,
		Intent:    understood.Filters.Intent,
		Filters:   convCtx.CurrentFilters,
		Path:      understood.Path,
	}

	var results core.SearchResults
	var reflected *core.ReflectionResult

	if !core.IsConversational(understood.Filters.Intent) {
		if plan := p.maybePlan(ctx, text); plan != nil {
			exec := p.executor.Execute(ctx, *plan, p.stepHandler(convCtx))
			result.Plan = plan
			result.Execution = &exec
			results = collectStepResults(exec)
		} else {
			results = p.runSearch(ctx, convCtx.CurrentFilters)
		}

		results, reflected = p.reflectAndRetry(ctx, convCtx, results)
		convCtx.AddSearch(convCtx.CurrentFilters.Query, resultTotal(results))
	}

	reply := p.dialogue.Respond(convCtx, understood.Filters.Intent, results, reflected)
	convCtx.AddTurn("assistant", reply.Text, nil)

	if err := p.dialogue.Save(ctx, convCtx); err != nil {
		logger.Warn("session save failed", "session", sessionID, "error", err)
	}

	p.learning.Record(core.InteractionRecord{
		Kind:        core.InteractionQuery,
		SessionID:   sessionID,
		UserID:      userID,
		Query:       text,
		Intent:      understood.Filters.Intent,
		Filters:     &understood.Filters,
		Path:        understood.Path,
		ResultCount: resultTotal(results),
		Confidence:  understood.Filters.Confidence,
		Response:    reply.Text,
	})

	result.Reply = reply.Text
	result.QuickReplies = reply.QuickReplies
	result.Filters = convCtx.CurrentFilters
	result.Results = results
	result.Awaiting = convCtx.Awaiting
	result.Reflection = reflected
	return result, nil
}

// maybePlan decomposes the message only when it reads as a compound request.
// Single-task turns never touch the planner, keeping the direct search path
// free of plan-generation latency.
func (p *Pilot) maybePlan(ctx context.Context, text string) *core.ExecutionPlan {
	if !planning.IsMultiTask(text) {
		return nil
	}
	plan := p.planner.Plan(ctx, text)
	if !plan.MultiTask {
		return nil
	}
	return &plan
}

// reflectAndRetry applies the reflection engine to a completed search. A
// "retry" action re-runs the full understanding pass on the alternative
// query, so the filters are re-derived from what the simplified query
// actually says, then searches once; the retry budget is a single shot.
func (p *Pilot) reflectAndRetry(ctx context.Context, convCtx *core.ConversationContext, results core.SearchResults) (core.SearchResults, *core.ReflectionResult) {
	filters := convCtx.CurrentFilters
	if !reflection.ShouldReflect(resultTotal(results), filters.Confidence) {
		return results, nil
	}

	ref := p.reflection.Reflect(ctx, convCtx.SessionID, filters, resultTotal(results))
	if ref.Action == core.ReflectNone {
		return results, nil
	}

	if ref.Action == core.ReflectRetry && ref.AlternativeQuery != "" {
		for attempt := 0; attempt < reflection.MaxRetries; attempt++ {
			retried := p.understand.Understand(ctx, ref.AlternativeQuery, convCtx)
			found := p.runSearch(ctx, retried.Filters)
			if resultTotal(found) > 0 {
				convCtx.CurrentFilters = retried.Filters
				return found, &ref
			}
		}
	}
	return results, &ref
}

// stepHandler dispatches plan steps: search-like steps run an understanding
// pass over the clause and search with the session's accumulated filters
// merged in; steps carrying item-quantity pairs additionally build a cart.
func (p *Pilot) stepHandler(convCtx *core.ConversationContext) planning.StepHandler {
	return func(ctx context.Context, step core.PlanStep) (any, error) {
		switch step.Type {
		case core.TaskFood, core.TaskGeneral:
			understood := p.understand.Understand(ctx, step.Description, convCtx)
			filters := convCtx.CurrentFilters.Merge(understood.Filters)
			results := p.runSearch(ctx, filters)
			if len(filters.CartItems) > 0 && p.carts != nil {
				cart, err := p.carts.BuildCart(ctx, filters.CartItems, filters.StoreID, filters.Module)
				if err != nil {
					p.logger.Warn("cart build failed", "step", step.ID, "error", err)
				} else {
					p.memory.RecordCart(ctx, convCtx.UserID, cart)
					return map[string]any{"results": results, "cart": cart}, nil
				}
			}
			return results, nil
		case core.TaskParcel, core.TaskTrack, core.TaskHelp:
			// These route to downstream services outside this layer; the
			// step result records the acknowledged task for the reply.
			return map[string]any{"task": string(step.Type), "description": step.Description}, nil
		default:
			return nil, fmt.Errorf("unknown step type %q", step.Type)
		}
	}
}

// runSearch executes a structured search, degrading to empty results when no
// executor is wired or the call fails.
func (p *Pilot) runSearch(ctx context.Context, filters core.ExtractedFilters) core.SearchResults {
	if p.search == nil {
		return core.SearchResults{}
	}
	results, err := p.search.Search(ctx, filters)
	if err != nil {
		p.logger.Warn("search failed, treating as zero results", "query", filters.Query, "error", err)
		return core.SearchResults{}
	}
	return results
}

// collectStepResults folds any SearchResults produced by plan steps into one
// result set for the reply.
func collectStepResults(exec core.ExecutionResult) core.SearchResults {
	var out core.SearchResults
	for _, step := range exec.Results {
		switch v := step.Output.(type) {
		case core.SearchResults:
			out.Items = append(out.Items, v.Items...)
			out.Stores = append(out.Stores, v.Stores...)
			out.Total += v.Total
		case map[string]any:
			if results, ok := v["results"].(core.SearchResults); ok {
				out.Items = append(out.Items, results.Items...)
				out.Stores = append(out.Stores, results.Stores...)
				out.Total += results.Total
			}
		}
	}
	return out
}

func resultTotal(results core.SearchResults) int {
	if results.Total > 0 {
		return results.Total
	}
	return len(results.Items) + len(results.Stores)
}

// VoiceResult is one completed voice interaction.
type VoiceResult struct {
	Transcript core.Transcript `json:"transcript"`
	Turn       ConverseResult  `json:"turn"`
	Audio      []byte          `json:"audio,omitempty"`
}

// VoiceSearch transcribes the audio, drives a conversational turn with the
// transcript, and synthesizes the reply. An empty transcript short-circuits
// with a clarify-style reply and no search.
func (p *Pilot) VoiceSearch(ctx context.Context, sessionID, userID string, audio []byte, format, language string) (VoiceResult, error) {
	if p.voice == nil {
		return VoiceResult{}, fmt.Errorf("no voice gateway configured")
	}

	transcript, err := p.voice.Transcribe(ctx, audio, format, language)
	if err != nil {
		return VoiceResult{}, fmt.Errorf("transcribe: %w", err)
	}

	if transcript.Text == "" {
		reply := "Sorry, I couldn't hear that. Could you say it again?"
		out := VoiceResult{
			Transcript: transcript,
			Turn:       ConverseResult{SessionID: sessionID, Reply: reply},
		}
		if speech, err := p.voice.Synthesize(ctx, reply, transcript.Language, ""); err == nil {
			out.Audio = speech.Audio
		}
		return out, nil
	}

	turn, err := p.Converse(ctx, sessionID, userID, transcript.Text)
	if err != nil {
		return VoiceResult{}, err
	}

	out := VoiceResult{Transcript: transcript, Turn: turn}
	speech, err := p.voice.Synthesize(ctx, turn.Reply, transcript.Language, "")
	if err != nil {
		p.logger.Warn("speech synthesis failed, returning text only", "error", err)
		return out, nil
	}
	out.Audio = speech.Audio
	return out, nil
}

// SubmitFeedback patches a user-action outcome onto the session's recorded
// interaction.
func (p *Pilot) SubmitFeedback(ctx context.Context, sessionID string, action core.UserAction) error {
	return p.learning.MarkOutcome(ctx, sessionID, action)
}

// RememberPreference appends an explicit user memory.
func (p *Pilot) RememberPreference(ctx context.Context, userID string, memType core.MemoryType, content string) error {
	return p.memory.Remember(ctx, userID, memType, content)
}

// GetUserProfile returns the user's memories and derived preferences.
func (p *Pilot) GetUserProfile(ctx context.Context, userID string) (core.UserProfile, error) {
	return p.memory.Profile(ctx, userID)
}

// TriggerRetrain runs the manual extraction and forwarding sequence,
// returning the submitted sample count. core.ErrNotEnoughData signals fewer
// than the manual threshold.
func (p *Pilot) TriggerRetrain(ctx context.Context) (int, error) {
	return p.learning.TriggerManual(ctx)
}

// Stats returns aggregate interaction statistics.
func (p *Pilot) Stats(ctx context.Context) (core.AggregateStats, error) {
	return p.analytics.Stats(ctx)
}

// ClearSession discards a session's conversation context.
func (p *Pilot) ClearSession(ctx context.Context, sessionID string) error {
	return p.dialogue.Clear(ctx, sessionID)
}

// Learning exposes the learning loop for schedule wiring in the server.
func (p *Pilot) Learning() *learning.Loop { return p.learning }

// HealthStatus reports per-dependency health.
type HealthStatus struct {
	Healthy   bool   `json:"healthy"`
	Session   string `json:"session"`
	Analytics string `json:"analytics"`
}

// Health pings the session and analytics stores.
func (p *Pilot) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{Healthy: true, Session: "ok", Analytics: "ok"}
	if err := p.sessions.Ping(ctx); err != nil {
		status.Healthy = false
		status.Session = err.Error()
	}
	if err := p.analytics.Ping(ctx); err != nil {
		status.Healthy = false
		status.Analytics = err.Error()
	}
	return status
}

// noopClassifier reports every query as unknown with zero confidence.
type noopClassifier struct{}

func (noopClassifier) Classify(ctx context.Context, text string) (core.ClassifierResult, error) {
	return core.ClassifierResult{Intent: core.IntentUnknown}, nil
}

// noopExtractor finds no entities.
type noopExtractor struct{}

func (noopExtractor) Extract(ctx context.Context, text string) (core.Entities, error) {
	return core.Entities{}, nil
}
