package core

// ReflectionAction is the corrective action chosen after a poor search
// outcome.
type ReflectionAction string

// Possible reflection actions.
const (
	ReflectClarify ReflectionAction = "clarify"
	ReflectRetry   ReflectionAction = "retry"
	ReflectSuggest ReflectionAction = "suggest"
	ReflectNone    ReflectionAction = "none"
)

// ReflectionResult is the ephemeral output of the reflection engine. Exactly
// one of Question / AlternativeQuery / Suggestions is populated, matching
// the chosen action.
type ReflectionResult struct {
	Action           ReflectionAction `json:"action"`
	Reasoning        string           `json:"reasoning,omitempty"`
	Question         string           `json:"question,omitempty"`
	AlternativeQuery string           `json:"alternative_query,omitempty"`
	Suggestions      []string         `json:"suggestions,omitempty"`
}
