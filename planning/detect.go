package planning

import (
	"strings"

	"github.com/querypilot/querypilot/core"
)

// multiTaskPatterns are explicit linguistic markers of a compound request.
var multiTaskPatterns = []string{"and also", "then also", "and then", "after that"}

// taskKeywords maps each task category to the words that signal it.
var taskKeywords = map[core.TaskType][]string{
	core.TaskFood: {
		"order", "food", "eat", "hungry", "lunch", "dinner", "breakfast",
		"meal", "pizza", "biryani", "burger", "restaurant",
	},
	core.TaskParcel: {
		"parcel", "send", "deliver", "delivery", "package", "courier", "drop",
	},
	core.TaskTrack: {
		"track", "status", "where",
	},
	core.TaskHelp: {
		"help", "support", "refund", "cancel", "complaint",
	},
}

// greetingWords short-circuit planning entirely.
var greetingWords = []string{"hi", "hello", "hey", "thanks", "thank", "bye"}

// taskCategories returns the distinct task categories whose keywords appear
// in the message, in a stable order.
func taskCategories(text string) []core.TaskType {
	lower := strings.ToLower(text)
	words := map[string]bool{}
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, ".,!?")] = true
	}
	ordered := []core.TaskType{core.TaskFood, core.TaskParcel, core.TaskTrack, core.TaskHelp}
	var found []core.TaskType
	for _, task := range ordered {
		for _, kw := range taskKeywords[task] {
			if words[kw] {
				found = append(found, task)
				break
			}
		}
	}
	return found
}

// isTrivial reports whether the message should bypass planning entirely:
// very short messages, greetings, and single-item utterances.
func isTrivial(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) <= 2 {
		return true
	}
	first := strings.Trim(words[0], ".,!?")
	for _, g := range greetingWords {
		if first == g {
			return true
		}
	}
	return false
}

// IsMultiTask reports whether the message reads as a compound request. It is
// the cheap pre-check callers use to decide whether plan generation (and its
// model round-trip) is worth paying for at all.
func IsMultiTask(text string) bool {
	multi, _ := detectMultiTask(text)
	return multi
}

// detectMultiTask combines the explicit patterns with the category counter:
// more than one distinct category present implies a multi-task request, as
// does an explicit compound marker alongside at least one category.
func detectMultiTask(text string) (bool, []core.TaskType) {
	categories := taskCategories(text)
	if len(categories) > 1 {
		return true, categories
	}
	lower := strings.ToLower(text)
	for _, p := range multiTaskPatterns {
		if strings.Contains(lower, p) && len(categories) > 0 {
			return true, categories
		}
	}
	return false, categories
}
