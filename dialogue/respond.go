package dialogue

import (
	"fmt"
	"strings"

	"github.com/querypilot/querypilot/core"
)

// Reply is a drafted natural-language response with 2-4 quick-reply
// suggestions for the chat surface.
type Reply struct {
	Text         string   `json:"text"`
	QuickReplies []string `json:"quick_replies,omitempty"`
}

// cannedReplies answer small-talk intents without touching the slot machine.
var cannedReplies = map[string]Reply{
	core.IntentGreeting: {
		Text:         "Hi! What can I get you today?",
		QuickReplies: []string{"Order food", "Groceries", "Send a parcel"},
	},
	core.IntentGoodbye: {
		Text:         "Bye! Come back whenever you're hungry.",
		QuickReplies: []string{"Order food", "Track order"},
	},
	core.IntentThanks: {
		Text:         "Happy to help! Anything else?",
		QuickReplies: []string{"Order food", "Track order", "No, thanks"},
	},
	core.IntentHelp: {
		Text:         "I can find food, groceries and medicines, book rides, and send parcels. Just tell me what you need.",
		QuickReplies: []string{"Order food", "Groceries", "Send a parcel", "Book a ride"},
	},
}

// slotQuestions are the follow-up questions and quick replies per awaiting
// slot.
var slotQuestions = map[core.Slot]Reply{
	core.SlotQuery: {
		Text:         "What are you looking for?",
		QuickReplies: []string{"Biryani", "Pizza", "Groceries"},
	},
	core.SlotModule: {
		Text:         "Should I look in food, grocery or pharmacy?",
		QuickReplies: []string{"Food", "Grocery", "Pharmacy"},
	},
	core.SlotVegPreference: {
		Text:         "Veg or non-veg?",
		QuickReplies: []string{"Veg", "Non-veg", "Both"},
	},
	core.SlotPrice: {
		Text:         "Any budget in mind?",
		QuickReplies: []string{"Under 200", "Under 500", "No limit"},
	},
	core.SlotTiming: {
		Text:         "Only places open right now?",
		QuickReplies: []string{"Open now", "Doesn't matter"},
	},
	core.SlotClarification: {
		Text:         "Could you tell me a bit more about what you want?",
		QuickReplies: []string{"Start over", "Help"},
	},
}

// Respond drafts the assistant reply for a completed turn. turnIntent is the
// current turn's understood intent (the accumulated filters may carry an
// older one). Branch order: small-talk canned responses, zero-result
// messaging, unresolved-slot follow-up, then a summary of applied filters
// and result count.
func (m *Manager) Respond(convCtx *core.ConversationContext, turnIntent string, results core.SearchResults, reflection *core.ReflectionResult) Reply {
	filters := convCtx.CurrentFilters

	if r, ok := cannedReplies[turnIntent]; ok {
		return r
	}

	if resultCount(results) == 0 {
		return m.noResultsReply(filters, reflection)
	}

	if convCtx.Awaiting != core.SlotNone {
		if r, ok := slotQuestions[convCtx.Awaiting]; ok {
			prefix := fmt.Sprintf("Found %d results for %q. ", resultCount(results), filters.Query)
			return Reply{Text: prefix + r.Text, QuickReplies: r.QuickReplies}
		}
	}

	return m.summaryReply(filters, resultCount(results))
}

// noResultsReply explains an empty result set, citing price or openness
// constraints as the likely cause when present, and folds in any reflection
// outcome (clarifying question or substitute suggestions).
func (m *Manager) noResultsReply(filters core.ExtractedFilters, reflection *core.ReflectionResult) Reply {
	if reflection != nil {
		switch reflection.Action {
		case core.ReflectClarify:
			return Reply{
				Text:         reflection.Question,
				QuickReplies: []string{"Start over", "Help"},
			}
		case core.ReflectSuggest:
			if len(reflection.Suggestions) > 0 {
				return Reply{
					Text:         fmt.Sprintf("I couldn't find %q. How about one of these instead?", filters.Query),
					QuickReplies: reflection.Suggestions,
				}
			}
		}
	}

	text := fmt.Sprintf("Sorry, I couldn't find anything for %q.", filters.Query)
	switch {
	case filters.PriceMax != nil:
		text += fmt.Sprintf(" The budget of %.0f might be too tight - want to raise it?", *filters.PriceMax)
		return Reply{Text: text, QuickReplies: []string{"Raise budget", "Change search"}}
	case filters.IsOpen != nil && *filters.IsOpen:
		text += " Nothing nearby is open right now - should I include closed places?"
		return Reply{Text: text, QuickReplies: []string{"Include closed", "Change search"}}
	default:
		return Reply{Text: text + " Try a different search?", QuickReplies: []string{"Change search", "Help"}}
	}
}

// summaryReply enumerates the applied filters and the result count.
func (m *Manager) summaryReply(filters core.ExtractedFilters, count int) Reply {
	text := fmt.Sprintf("Found %d results for %q", count, filters.Query)
	if applied := filters.AppliedSummary(); len(applied) > 0 {
		text += " (" + strings.Join(applied, ", ") + ")"
	}
	text += "."
	return Reply{
		Text:         text,
		QuickReplies: []string{"Sort by price", "Top rated", "Change search"},
	}
}

func resultCount(results core.SearchResults) int {
	if results.Total > 0 {
		return results.Total
	}
	return len(results.Items) + len(results.Stores)
}
