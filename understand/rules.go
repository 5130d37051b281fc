package understand

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/querypilot/querypilot/core"
)

// cheapPriceCeiling is the price cap implied by "cheap"/"budget" phrasing
// when no explicit number is given.
const cheapPriceCeiling = 200

var (
	underPriceRe = regexp.MustCompile(`(?i)\b(?:under|below|within|less than)\s+(?:rs\.?\s*)?(\d+)`)
	starRatingRe = regexp.MustCompile(`(?i)\b(\d(?:\.\d)?)\s*star`)
	nonVegRe     = regexp.MustCompile(`(?i)\bnon[\s-]?veg(?:etarian)?\b`)
	vegRe        = regexp.MustCompile(`(?i)\bveg(?:etarian)?\b`)
	nearMeRe     = regexp.MustCompile(`(?i)\bnear\s*(?:me|by)\b|\bnearby\b|\bclose by\b`)
	openNowRe    = regexp.MustCompile(`(?i)\bopen(?:\s+now)?\b`)
)

var storeEntityWords = []string{"store", "stores", "shop", "shops", "restaurant", "restaurants", "pharmacy", "place", "places"}

// rulesExtract derives cheap structured filters from query text alone: price
// ceilings, rating floors, veg preference, location intent and store-vs-item
// entity type. It never sets the query text; callers decide that.
func rulesExtract(query string) core.ExtractedFilters {
	var f core.ExtractedFilters
	lower := strings.ToLower(query)

	if m := underPriceRe.FindStringSubmatch(query); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.PriceMax = core.Float(v)
		}
	} else if strings.Contains(lower, "cheap") || strings.Contains(lower, "budget") || strings.Contains(lower, "affordable") {
		f.PriceMax = core.Float(cheapPriceCeiling)
		f.SortBy = "price"
		f.SortOrder = "asc"
	}

	if m := starRatingRe.FindStringSubmatch(query); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.MinRating = core.Float(v)
		}
	} else if strings.Contains(lower, "top rated") || strings.Contains(lower, "top-rated") || strings.Contains(lower, "best") {
		f.MinRating = core.Float(4)
		f.SortBy = "rating"
		f.SortOrder = "desc"
	}

	if nonVegRe.MatchString(query) {
		f.Veg = core.Bool(false)
	} else if vegRe.MatchString(query) {
		f.Veg = core.Bool(true)
	}

	if nearMeRe.MatchString(query) {
		f.UseCurrentLocation = true
	}
	if openNowRe.MatchString(query) {
		f.IsOpen = core.Bool(true)
	}

	f.EntityType = "item"
	for _, w := range storeEntityWords {
		if containsWord(lower, w) {
			f.EntityType = "store"
			break
		}
	}
	return f
}

// fillerTerms are removed when deriving a cleaned search term from raw text.
var fillerTerms = map[string]bool{
	"cheap": true, "cheapest": true, "budget": true, "affordable": true,
	"veg": true, "vegetarian": true, "non-veg": true, "nonveg": true,
	"near": true, "me": true, "nearby": true, "close": true, "by": true,
	"open": true, "now": true, "top": true, "rated": true, "top-rated": true,
	"best": true, "star": true, "stars": true, "under": true, "below": true,
	"within": true, "rs": true, "some": true, "want": true, "i": true,
	"show": true, "find": true, "get": true, "order": true, "please": true,
	"a": true, "an": true, "the": true, "for": true, "from": true,
	"only": true, "yes": true, "no": true,
}

// onlyFillerTerms reports whether every word of the query is a filter or
// filler term, i.e. the message is a pure slot answer carrying no search term
// of its own.
func onlyFillerTerms(query string) bool {
	for _, w := range strings.Fields(query) {
		clean := strings.ToLower(strings.Trim(w, ".,!?"))
		if fillerTerms[clean] {
			continue
		}
		if _, err := strconv.Atoi(clean); err == nil {
			continue
		}
		return false
	}
	return true
}

// stripFilterTerms removes filter-bearing and filler words, leaving the bare
// search term. Returns the original text when stripping would empty it.
func stripFilterTerms(query string) string {
	words := strings.Fields(query)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		clean := strings.ToLower(strings.Trim(w, ".,!?"))
		if fillerTerms[clean] {
			continue
		}
		if _, err := strconv.Atoi(clean); err == nil {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return query
	}
	return strings.Join(kept, " ")
}

// smallTalkIntent recognizes greetings and pleasantries without the
// classifier, for degraded operation and very short messages.
func smallTalkIntent(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	switch {
	case containsAnyWord(lower, "hi", "hello", "hey", "namaste"):
		return core.IntentGreeting
	case containsAnyWord(lower, "bye", "goodbye"):
		return core.IntentGoodbye
	case strings.Contains(lower, "thank"):
		return core.IntentThanks
	case containsAnyWord(lower, "help") || strings.Contains(lower, "support"):
		return core.IntentHelp
	}
	return ""
}

func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if strings.Trim(w, ".,!?") == word {
			return true
		}
	}
	return false
}

func containsAnyWord(text string, words ...string) bool {
	for _, w := range words {
		if containsWord(text, w) {
			return true
		}
	}
	return false
}
