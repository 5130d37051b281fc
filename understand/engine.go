// Package understand implements the dual-path query understanding engine:
// cheap entity extraction feeds a complexity decision that routes each query
// either through the fast intent classifier with rule-based extraction, or
// through the LLM parser for nuanced multi-filter queries. Both paths fuse
// their output with the extractor's into one ExtractedFilters value.
package understand

import (
	"context"
	"strings"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

// Options configure optional engine collaborators.
type Options struct {
	// Resolver, when set, resolves extracted store names to store ids
	// during fusion.
	Resolver core.SearchExecutor
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Engine decides fast vs complex handling per query, invokes the adapters
// and fuses their outputs. Adapter failures degrade to best-effort partial
// results; Understand never fails.
type Engine struct {
	classifier core.IntentClassifier
	extractor  core.EntityExtractor
	llm        core.LanguageModel
	resolver   core.SearchExecutor
	logger     logging.Logger
}

// Result is one understanding outcome.
type Result struct {
	Filters core.ExtractedFilters
	Path    string
	Latency time.Duration
}

// minStoreMatchScore is the resolver score below which a store match is
// ignored.
const minStoreMatchScore = 0.6

// NewEngine constructs an understanding engine.
func NewEngine(classifier core.IntentClassifier, extractor core.EntityExtractor, llm core.LanguageModel, optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{
		classifier: classifier,
		extractor:  extractor,
		llm:        llm,
		resolver:   opts.Resolver,
		logger:     opts.Logger,
	}
}

// Understand parses a free-text query into structured filters. The entity
// extractor always runs first (cheap, low latency); its output informs both
// the path decision and the final fusion.
func (e *Engine) Understand(ctx context.Context, query string, convCtx *core.ConversationContext) Result {
	start := time.Now()

	ents, err := e.extractor.Extract(ctx, query)
	if err != nil {
		e.logger.Warn("entity extraction failed, continuing without entities", "error", err)
		ents = core.Entities{}
	}

	path := classifyPath(query, ents)

	var filters core.ExtractedFilters
	if path == PathComplex {
		filters = e.complexPath(ctx, query, ents, convCtx)
	} else {
		filters = e.fastPath(ctx, query, ents)
	}

	// Query text is never empty after fusion. A pure slot answer ("under
	// 200", "veg only") strips down to nothing; the session's accumulated
	// query is a better fallback than the raw answer text.
	if strings.TrimSpace(filters.Query) == "" {
		if convCtx != nil && convCtx.CurrentFilters.Query != "" {
			filters.Query = convCtx.CurrentFilters.Query
		} else {
			filters.Query = query
		}
	}
	if filters.Intent == "" {
		filters.Intent = core.IntentSearch
	}

	e.resolveStore(ctx, &filters)

	latency := time.Since(start)
	e.logger.Debug("understanding completed", "path", path, "intent", filters.Intent, "confidence", filters.Confidence, "latency", latency)
	return Result{Filters: filters, Path: path, Latency: latency}
}

// fastPath classifies intent with the lightweight classifier and assembles
// filters from extractor output plus rule-based extraction.
func (e *Engine) fastPath(ctx context.Context, query string, ents core.Entities) core.ExtractedFilters {
	cr, err := e.classifier.Classify(ctx, query)
	if err != nil {
		e.logger.Warn("intent classification failed, degrading to unknown", "error", err)
		cr = core.ClassifierResult{Intent: core.IntentUnknown, Confidence: 0}
	}
	if cr.Intent == core.IntentUnknown || cr.Intent == "" {
		if st := smallTalkIntent(query); st != "" {
			cr.Intent = st
			cr.Confidence = 0.9
		}
	}

	filters := rulesExtract(query)
	filters = filters.Fuse(filtersFromEntities(ents))

	if filters.Query == "" && !onlyFillerTerms(query) {
		filters.Query = stripFilterTerms(query)
	}
	filters.Intent = cr.Intent
	filters.Module = core.ModuleForIntent(cr.Intent)
	filters.Confidence = cr.Confidence
	return filters
}

// resolveStore turns a free-text store name into a store id when a resolver
// is wired and the match is strong enough.
func (e *Engine) resolveStore(ctx context.Context, filters *core.ExtractedFilters) {
	if e.resolver == nil || filters.StoreName == "" || filters.StoreID != "" {
		return
	}
	match, err := e.resolver.ResolveStore(ctx, filters.StoreName, filters.Module)
	if err != nil {
		e.logger.Debug("store resolution failed", "store", filters.StoreName, "error", err)
		return
	}
	if match.Score >= minStoreMatchScore {
		filters.StoreID = match.StoreID
	}
}

// filtersFromEntities projects normalized NER output onto the filter shape.
func filtersFromEntities(ents core.Entities) core.ExtractedFilters {
	var f core.ExtractedFilters
	if len(ents.Foods) > 0 {
		f.Query = strings.Join(ents.Foods, " ")
	}
	f.StoreName = ents.StoreName
	f.Preferences = ents.Preferences
	f.CartItems = ents.Items
	f.Variant = ents.Variant
	if ents.Location != "" && strings.EqualFold(ents.Location, "current") {
		f.UseCurrentLocation = true
	}
	return f
}
