package core

import (
	"context"
	"time"
)

// ClassifierResult is the fast intent classifier's output.
type ClassifierResult struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// IntentClassifier wraps the external lightweight classifier. Adapter
// failures degrade to {IntentUnknown, 0} rather than propagating.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) (ClassifierResult, error)
}

// LanguageModel wraps the external LLM inference endpoint. Complete sends a
// prompt (plus optional conversational context) and returns free text that
// is expected, but not guaranteed, to contain a JSON object. GenerateResponse
// returns arbitrary text for reflection and planning use.
type LanguageModel interface {
	Complete(ctx context.Context, prompt, convContext string) (string, error)
	GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// EntitySpan is a raw span reported by the NER service.
type EntitySpan struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Entities is the normalized output of the named-entity extractor.
type Entities struct {
	Foods       []string     `json:"foods,omitempty"`
	StoreName   string       `json:"store_name,omitempty"`
	Quantity    string       `json:"quantity,omitempty"`
	Location    string       `json:"location,omitempty"`
	Preferences []string     `json:"preferences,omitempty"`
	Variant     string       `json:"variant,omitempty"`
	Items       []CartItem   `json:"items,omitempty"`
	Spans       []EntitySpan `json:"spans,omitempty"`
}

// Rich reports whether extraction found enough structure for the fast path
// to rely on (an explicit item or store plus any supporting field).
func (e Entities) Rich() bool {
	primary := len(e.Foods) > 0 || e.StoreName != ""
	supporting := len(e.Preferences) > 0 || e.Quantity != "" || e.Variant != "" || e.Location != "" || len(e.Items) > 0
	return primary && supporting
}

// Empty reports whether extraction found nothing at all.
func (e Entities) Empty() bool {
	return len(e.Foods) == 0 && e.StoreName == "" && e.Quantity == "" && e.Location == "" &&
		len(e.Preferences) == 0 && e.Variant == "" && len(e.Items) == 0
}

// EntityExtractor wraps the external NER service.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (Entities, error)
}

// Transcript is the speech-to-text result.
type Transcript struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence"`
}

// SpeechAudio is the text-to-speech result.
type SpeechAudio struct {
	Audio      []byte `json:"audio"`
	DurationMS int    `json:"duration_ms,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// VoiceGateway wraps the external ASR/TTS services.
type VoiceGateway interface {
	Transcribe(ctx context.Context, audio []byte, format, language string) (Transcript, error)
	Synthesize(ctx context.Context, text, language, voice string) (SpeechAudio, error)
}

// SearchItem is one product result.
type SearchItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	StoreID  string  `json:"store_id,omitempty"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating,omitempty"`
	Veg      *bool   `json:"veg,omitempty"`
	Category string  `json:"category,omitempty"`
}

// StoreResult is one store result.
type StoreResult struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating,omitempty"`
	IsOpen bool    `json:"is_open"`
}

// SearchResults is the executor's response for a structured query.
type SearchResults struct {
	Items  []SearchItem  `json:"items,omitempty"`
	Stores []StoreResult `json:"stores,omitempty"`
	Total  int           `json:"total"`
}

// StoreMatch is a best-match store resolution with its match score.
type StoreMatch struct {
	StoreID string  `json:"store_id"`
	Name    string  `json:"name,omitempty"`
	Score   float64 `json:"score"`
}

// SearchExecutor runs structured searches against the underlying product and
// store indexes and resolves free-text store names to ids.
type SearchExecutor interface {
	Search(ctx context.Context, filters ExtractedFilters) (SearchResults, error)
	ResolveStore(ctx context.Context, name, module string) (StoreMatch, error)
}

// CartLine is one matched line item in a constructed cart.
type CartLine struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CartSummary is the cart-construction helper's response.
type CartSummary struct {
	Matched  int        `json:"matched"`
	Subtotal float64    `json:"subtotal"`
	Lines    []CartLine `json:"lines,omitempty"`
}

// CartBuilder wraps the external cart-construction helper.
type CartBuilder interface {
	BuildCart(ctx context.Context, items []CartItem, storeID, module string) (CartSummary, error)
}

// AnalyticsStore persists interaction records, outcome patches, and
// long-lived user memories. Interaction records are append-only; MarkOutcome
// is the single documented best-effort update, keyed by session id.
type AnalyticsStore interface {
	RecordInteraction(ctx context.Context, rec InteractionRecord) error
	MarkOutcome(ctx context.Context, sessionID string, action UserAction) error
	TrainingCandidates(ctx context.Context, since time.Time) ([]InteractionRecord, error)
	Stats(ctx context.Context) (AggregateStats, error)
	AppendMemory(ctx context.Context, userID string, m UserMemory) error
	Memories(ctx context.Context, userID string, limit int) ([]UserMemory, error)
	Ping(ctx context.Context) error
}

// SessionStore persists serialized conversation contexts with a sliding TTL.
// Get returns (nil, nil) for a missing or expired session; expiry is
// enforced by the store itself, so no cleanup job exists.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*ConversationContext, error)
	Put(ctx context.Context, convCtx *ConversationContext) error
	Clear(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// Retrainer forwards extracted training samples to the external retraining
// endpoint. Samples are treated additively, so overlapping submissions from
// re-run extraction windows are harmless.
type Retrainer interface {
	Submit(ctx context.Context, samples []TrainingSample) error
}
