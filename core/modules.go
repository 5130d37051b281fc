package core

// Marketplace module identifiers. Every understood query is routed to one of
// these verticals; an empty module means the dialogue still has to resolve it.
const (
	ModuleFood     = "food"
	ModuleGrocery  = "grocery"
	ModulePharmacy = "pharmacy"
	ModuleRide     = "ride"
	ModuleParcel   = "parcel"
	ModuleMovie    = "movie"
)

// Intent labels produced by the classifier and the fallback parsers.
const (
	IntentSearch   = "search"
	IntentOrder    = "order"
	IntentTrack    = "track"
	IntentGreeting = "greeting"
	IntentGoodbye  = "goodbye"
	IntentThanks   = "thanks"
	IntentHelp     = "help"
	IntentUnknown  = "unknown"
)

// intentModules maps classifier intent labels to marketplace modules. Intents
// absent from the map leave the module unresolved for the dialogue to ask.
var intentModules = map[string]string{
	"order_food":      ModuleFood,
	"search_food":     ModuleFood,
	"search_grocery":  ModuleGrocery,
	"order_grocery":   ModuleGrocery,
	"search_medicine": ModulePharmacy,
	"order_medicine":  ModulePharmacy,
	"book_ride":       ModuleRide,
	"send_parcel":     ModuleParcel,
	"book_movie":      ModuleMovie,
}

// ModuleForIntent resolves a classifier intent label to a module id,
// returning "" when the intent does not imply a specific vertical.
func ModuleForIntent(intent string) string {
	return intentModules[intent]
}

// IsConversational reports whether the intent is small talk that
// short-circuits search and slot filling entirely.
func IsConversational(intent string) bool {
	switch intent {
	case IntentGreeting, IntentGoodbye, IntentThanks, IntentHelp:
		return true
	}
	return false
}
