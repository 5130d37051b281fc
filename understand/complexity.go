package understand

import (
	"strings"
	"unicode"

	"github.com/querypilot/querypilot/core"
)

// Understanding paths.
const (
	PathSimple  = "simple"
	PathComplex = "complex"
)

// conjunctionWords cover coordination and comparison phrasing that hints at
// multi-clause or comparative queries.
var conjunctionWords = map[string]bool{
	"and": true, "or": true, "but": true, "then": true, "also": true,
	"than": true, "versus": true, "vs": true, "compared": true,
	"cheaper": true, "better": true,
}

// filterKeywords are filter-bearing terms whose density pushes a query
// toward the complex path.
var filterKeywords = map[string]bool{
	"veg": true, "vegetarian": true, "non-veg": true, "nonveg": true,
	"open": true, "cheap": true, "cheapest": true, "budget": true,
	"affordable": true, "under": true, "below": true, "near": true,
	"nearby": true, "close": true, "top": true, "top-rated": true,
	"rated": true, "rating": true, "best": true, "star": true, "stars": true,
}

// AddFilterKeywords extends the filter-keyword table, typically from the
// YAML keyword configuration. Call during startup only; the table is read
// without locking afterwards.
func AddFilterKeywords(words []string) {
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			filterKeywords[w] = true
		}
	}
}

type queryFeatures struct {
	wordCount      int
	hasConjunction bool
	hasNumeral     bool
	filterKeywords int
	richEntities   bool
}

func featuresOf(query string, ents core.Entities) queryFeatures {
	words := strings.Fields(strings.ToLower(query))
	f := queryFeatures{wordCount: len(words), richEntities: ents.Rich()}
	for _, w := range words {
		w = strings.Trim(w, ".,!?")
		if conjunctionWords[w] {
			f.hasConjunction = true
		}
		if filterKeywords[w] {
			f.filterKeywords++
		}
		for _, r := range w {
			if unicode.IsDigit(r) {
				f.hasNumeral = true
				break
			}
		}
	}
	return f
}

// classifyPath decides fast vs complex handling for a query. The policy is
// evaluated strictly in order and defaults ambiguous cases to the fast path:
// latency is prioritized over recall.
func classifyPath(query string, ents core.Entities) string {
	f := featuresOf(query, ents)
	switch {
	case f.wordCount <= 3:
		return PathSimple
	case f.richEntities && !f.hasConjunction && f.filterKeywords <= 2:
		return PathSimple
	case f.filterKeywords >= 3, f.hasConjunction && f.hasNumeral:
		return PathComplex
	case f.wordCount <= 6 && !f.hasConjunction:
		return PathSimple
	default:
		return PathSimple
	}
}
