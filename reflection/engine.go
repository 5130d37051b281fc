// Package reflection inspects a completed search's result count and
// confidence and decides whether to retry with a simplified query, ask a
// clarifying question, offer substitute suggestions, or accept the result
// as-is. Analysis is LLM-backed with a deterministic rule fallback, and
// every reflection is logged to the analytics store for audit and
// training-set mining.
package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
	"github.com/querypilot/querypilot/model"
)

// MaxRetries bounds how many times a reflection "retry" action may be
// applied per request. The single-shot loop is an explicit budget so it can
// never become unbounded by accident.
const MaxRetries = 1

// simplifyWordCount is how many meaningful words a retry keeps.
const simplifyWordCount = 3

// defaultSuggestions maps query keywords to substitute suggestions for the
// rule fallback. Extended via Options.Suggestions.
var defaultSuggestions = map[string][]string{
	"pizza":    {"burger", "pasta", "sandwich"},
	"biryani":  {"fried rice", "pulao", "kebab"},
	"burger":   {"pizza", "sandwich", "wrap"},
	"noodles":  {"pasta", "fried rice", "momos"},
	"coffee":   {"tea", "cold coffee", "milkshake"},
	"medicine": {"pharmacy", "health supplies"},
}

// genericSuggestions are offered when no keyword matches.
var genericSuggestions = []string{"pizza", "burger", "groceries"}

// stopwords are excluded when counting meaningful query words.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "for": true, "to": true, "me": true,
	"i": true, "want": true, "some": true, "please": true, "near": true,
	"in": true, "of": true, "and": true,
}

// Options configure the reflection engine.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Suggestions extends the keyword-to-alternatives table; same-key
	// entries override the built-ins.
	Suggestions map[string][]string
}

// Engine performs post-hoc analysis of poor search outcomes.
type Engine struct {
	llm         core.LanguageModel
	analytics   core.AnalyticsStore
	logger      logging.Logger
	suggestions map[string][]string
}

// NewEngine constructs a reflection engine. llm may be nil, in which case
// only the deterministic rules run.
func NewEngine(llm core.LanguageModel, analytics core.AnalyticsStore, optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	suggestions := make(map[string][]string, len(defaultSuggestions)+len(opts.Suggestions))
	for k, v := range defaultSuggestions {
		suggestions[k] = v
	}
	for k, v := range opts.Suggestions {
		suggestions[k] = v
	}
	return &Engine{llm: llm, analytics: analytics, logger: opts.Logger, suggestions: suggestions}
}

// ShouldReflect is the exact trigger predicate: reflection fires iff the
// search returned nothing, or confidence was low, or a thin result set came
// with middling confidence.
func ShouldReflect(resultCount int, confidence float64) bool {
	return resultCount == 0 || confidence < 0.5 || (resultCount < 3 && confidence < 0.7)
}

// Reflect analyzes a completed search and proposes one corrective action.
// It never fails: LLM unavailability or unparseable output falls back to
// deterministic rules, and analytics logging failures are swallowed.
func (e *Engine) Reflect(ctx context.Context, sessionID string, filters core.ExtractedFilters, resultCount int) core.ReflectionResult {
	if !ShouldReflect(resultCount, filters.Confidence) {
		return core.ReflectionResult{Action: core.ReflectNone}
	}

	result, ok := e.llmReflect(ctx, filters, resultCount)
	if !ok {
		result = e.ruleReflect(filters, resultCount)
	}

	e.audit(ctx, sessionID, filters, resultCount, result)
	if rl, ok := e.logger.(logging.ReflectionLogger); ok {
		rl.LogReflection(string(result.Action), resultCount, result.Reasoning)
	} else {
		e.logger.Info("reflection decided", "action", result.Action, "results", resultCount, "confidence", filters.Confidence)
	}
	return result
}

const reflectPrompt = `A marketplace search performed poorly and needs a corrective action.
Query: %q
Intent: %s
Result count: %d
Confidence: %.2f
Reply with ONLY a JSON object:
{"action":"clarify|retry|suggest|none","reasoning":"why","question":"...","alternative_query":"...","suggestions":["..."]}
Rules: "retry" requires alternative_query, a strictly simpler version of the original query;
"clarify" requires question; "suggest" requires suggestions.`

func (e *Engine) llmReflect(ctx context.Context, filters core.ExtractedFilters, resultCount int) (core.ReflectionResult, bool) {
	if e.llm == nil {
		return core.ReflectionResult{}, false
	}
	prompt := fmt.Sprintf(reflectPrompt, filters.Query, filters.Intent, resultCount, filters.Confidence)
	raw, err := e.llm.GenerateResponse(ctx, prompt, 300)
	if err != nil {
		e.logger.Warn("reflection llm call failed, using rules", "error", err)
		return core.ReflectionResult{}, false
	}
	obj, ok := model.ExtractJSONObject(raw)
	if !ok {
		return core.ReflectionResult{}, false
	}
	var result core.ReflectionResult
	if err := json.Unmarshal(obj, &result); err != nil {
		return core.ReflectionResult{}, false
	}
	return result, validate(result)
}

// validate rejects model output whose action lacks its supporting field.
func validate(r core.ReflectionResult) bool {
	switch r.Action {
	case core.ReflectRetry:
		return r.AlternativeQuery != ""
	case core.ReflectClarify:
		return r.Question != ""
	case core.ReflectSuggest:
		return len(r.Suggestions) > 0
	case core.ReflectNone:
		return true
	default:
		return false
	}
}

// ruleReflect is the deterministic fallback: simplify long zero-result
// queries, clarify short ones or low-confidence hits, otherwise suggest
// substitutes from the keyword table.
func (e *Engine) ruleReflect(filters core.ExtractedFilters, resultCount int) core.ReflectionResult {
	words := meaningfulWords(filters.Query)

	switch {
	case resultCount == 0 && len(words) > simplifyWordCount:
		return core.ReflectionResult{
			Action:           core.ReflectRetry,
			Reasoning:        "no results for a long query; retrying with a simplified version",
			AlternativeQuery: strings.Join(words[:simplifyWordCount], " "),
		}
	case resultCount == 0:
		return core.ReflectionResult{
			Action:    core.ReflectClarify,
			Reasoning: "no results for an already short query; asking the user to rephrase",
			Question:  fmt.Sprintf("I couldn't find anything for %q. Could you describe it differently?", filters.Query),
		}
	case filters.Confidence < 0.5:
		return core.ReflectionResult{
			Action:    core.ReflectClarify,
			Reasoning: "results found but understanding confidence is low; confirming with the user",
			Question:  fmt.Sprintf("Just to confirm - you're looking for %q, right?", filters.Query),
		}
	default:
		return core.ReflectionResult{
			Action:      core.ReflectSuggest,
			Reasoning:   "thin results; offering substitutes",
			Suggestions: e.substitutes(filters.Query),
		}
	}
}

func (e *Engine) substitutes(query string) []string {
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if alts, ok := e.suggestions[strings.Trim(w, ".,!?")]; ok {
			return alts
		}
	}
	return genericSuggestions
}

// audit appends the reflection to the analytics store. Failures are logged
// and swallowed; audit never blocks the response path.
func (e *Engine) audit(ctx context.Context, sessionID string, filters core.ExtractedFilters, resultCount int, result core.ReflectionResult) {
	if e.analytics == nil {
		return
	}
	rec := core.InteractionRecord{
		ID:          core.NewInteractionID(),
		Kind:        core.InteractionReflection,
		SessionID:   sessionID,
		Query:       filters.Query,
		Intent:      filters.Intent,
		Filters:     &filters,
		ResultCount: resultCount,
		Confidence:  filters.Confidence,
		Action:      string(result.Action),
		Reasoning:   result.Reasoning,
		Timestamp:   time.Now().UTC(),
	}
	if err := e.analytics.RecordInteraction(ctx, rec); err != nil {
		e.logger.Warn("reflection audit write failed", "error", err)
	}
}

func meaningfulWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(query) {
		if !stopwords[strings.ToLower(strings.Trim(w, ".,!?"))] {
			words = append(words, w)
		}
	}
	return words
}
