package understand

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/model"
)

// unparsedConfidence is assigned when the model returned parseable JSON but
// omitted its self-reported confidence.
const unparsedConfidence = 0.4

// fallbackConfidence is assigned by the keyword fallback parser.
const fallbackConfidence = 0.5

// maxContextTurns bounds how much conversation history is sent to the model.
const maxContextTurns = 6

// filterPrompt is the fixed prompt contract for the LLM parser. The model
// must answer with a single JSON object matching ExtractedFilters' wire
// shape; anything else triggers the fallback parser.
const filterPrompt = `You parse marketplace search queries into structured filters.
Respond with ONLY a JSON object, no prose, with these fields (omit unknown ones):
  "query": cleaned search term,
  "module": one of food|grocery|pharmacy|ride|parcel|movie,
  "veg": true/false dietary preference,
  "is_open": true if the user wants places open now,
  "price_min", "price_max": numeric price bounds,
  "min_rating": numeric rating floor,
  "category", "brand", "store_name": strings,
  "preferences": list of preference tags,
  "cart_items": list of {"name","quantity"},
  "variant": weight/size variant such as "500g",
  "use_current_location": true for "near me" phrasing,
  "sort_by": price|rating|distance, "sort_order": asc|desc,
  "entity_type": "item" or "store",
  "intent": the user's intent label,
  "confidence": your confidence 0..1,
  "corrected_query": set only when the query looks misspelled.

Query: %q`

// complexPath routes the query through the LLM parser and back-fills its
// output with fields the entity extractor captured but the model missed.
func (e *Engine) complexPath(ctx context.Context, query string, ents core.Entities, convCtx *core.ConversationContext) core.ExtractedFilters {
	prompt := fmt.Sprintf(filterPrompt, query)
	contextStr := conversationContext(convCtx)

	var filters core.ExtractedFilters
	parsed := false
	if e.llm != nil {
		raw, err := e.llm.Complete(ctx, prompt, contextStr)
		if err != nil {
			e.logger.Warn("llm parse failed, using fallback parser", "error", err)
		} else if f, ok := parseModelFilters(raw); ok {
			filters = f
			parsed = true
		} else {
			e.logger.Warn("llm output unparseable, using fallback parser")
		}
	}
	if !parsed {
		filters = fallbackParse(query)
	}

	filters = filters.Fuse(filtersFromEntities(ents))

	// The extractor's cleaned query wins whenever it found an explicit item.
	if len(ents.Foods) > 0 {
		filters.Query = strings.Join(ents.Foods, " ")
	}
	return filters
}

// parseModelFilters recovers an ExtractedFilters value from free model text.
func parseModelFilters(content string) (core.ExtractedFilters, bool) {
	raw, ok := model.ExtractJSONObject(content)
	if !ok {
		return core.ExtractedFilters{}, false
	}
	var f core.ExtractedFilters
	if err := json.Unmarshal(raw, &f); err != nil {
		return core.ExtractedFilters{}, false
	}
	if f.Confidence <= 0 {
		f.Confidence = unparsedConfidence
	} else if f.Confidence > 1 {
		f.Confidence = 1
	}
	if f.Intent == "" {
		f.Intent = core.IntentSearch
	}
	return f, true
}

// fallbackParse is the keyword-based parser used when the model is
// unavailable or its output is unusable. It still marks the intent as a
// search so the pipeline keeps moving, at reduced confidence.
func fallbackParse(query string) core.ExtractedFilters {
	f := rulesExtract(query)
	f.Query = stripFilterTerms(query)
	f.Intent = core.IntentSearch
	f.Confidence = fallbackConfidence
	return f
}

// conversationContext renders recent turns for the model's context window.
func conversationContext(convCtx *core.ConversationContext) string {
	if convCtx == nil || len(convCtx.Turns) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Recent conversation:\n")
	for _, turn := range convCtx.RecentTurns(maxContextTurns) {
		sb.WriteString(strings.ToUpper(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
