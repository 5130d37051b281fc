package testutil

import (
	"context"
	"errors"
	"strings"

	"github.com/querypilot/querypilot/core"
)

// FixedClassifier returns the same result for every query and records the
// inputs it saw.
type FixedClassifier struct {
	Result core.ClassifierResult
	Err    error
	Calls  []string
}

// Classify implements core.IntentClassifier.
func (c *FixedClassifier) Classify(ctx context.Context, text string) (core.ClassifierResult, error) {
	c.Calls = append(c.Calls, text)
	if c.Err != nil {
		return core.ClassifierResult{}, c.Err
	}
	return c.Result, nil
}

// FixedExtractor returns the same entities for every query.
type FixedExtractor struct {
	Entities core.Entities
	Err      error
	Calls    []string
}

// Extract implements core.EntityExtractor.
func (e *FixedExtractor) Extract(ctx context.Context, text string) (core.Entities, error) {
	e.Calls = append(e.Calls, text)
	if e.Err != nil {
		return core.Entities{}, e.Err
	}
	return e.Entities, nil
}

// ScriptedLLM returns canned responses in order, then repeats the last one.
// Both Complete and GenerateResponse consume from the same script.
type ScriptedLLM struct {
	Responses []string
	Err       error
	Prompts   []string
	next      int
}

// Complete implements core.LanguageModel.
func (m *ScriptedLLM) Complete(ctx context.Context, prompt, convContext string) (string, error) {
	return m.take(prompt)
}

// GenerateResponse implements core.LanguageModel.
func (m *ScriptedLLM) GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return m.take(prompt)
}

func (m *ScriptedLLM) take(prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", errors.New("scripted llm has no responses")
	}
	i := m.next
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	m.next++
	return m.Responses[i], nil
}

// FakeSearch returns result sets keyed by a substring of the query text; an
// unmatched query yields zero results. Store resolution answers from the
// Stores map.
type FakeSearch struct {
	ResultsByQuery map[string]core.SearchResults
	Stores         map[string]core.StoreMatch
	Err            error
	Searched       []core.ExtractedFilters
}

// Search implements core.SearchExecutor.
func (s *FakeSearch) Search(ctx context.Context, filters core.ExtractedFilters) (core.SearchResults, error) {
	s.Searched = append(s.Searched, filters)
	if s.Err != nil {
		return core.SearchResults{}, s.Err
	}
	for key, results := range s.ResultsByQuery {
		if strings.Contains(strings.ToLower(filters.Query), strings.ToLower(key)) {
			return results, nil
		}
	}
	return core.SearchResults{}, nil
}

// ResolveStore implements core.SearchExecutor.
func (s *FakeSearch) ResolveStore(ctx context.Context, name, module string) (core.StoreMatch, error) {
	if s.Err != nil {
		return core.StoreMatch{}, s.Err
	}
	if match, ok := s.Stores[strings.ToLower(name)]; ok {
		return match, nil
	}
	return core.StoreMatch{}, nil
}

// NItems builds a result set with n generically named items.
func NItems(n int) core.SearchResults {
	items := make([]core.SearchItem, n)
	for i := range items {
		items[i] = core.SearchItem{ID: "item-" + string(rune('a'+i)), Name: "Item", Price: 100}
	}
	return core.SearchResults{Items: items, Total: n}
}

// FakeRetrainer records submitted samples.
type FakeRetrainer struct {
	Err         error
	Submissions [][]core.TrainingSample
}

// Submit implements core.Retrainer.
func (r *FakeRetrainer) Submit(ctx context.Context, samples []core.TrainingSample) error {
	if r.Err != nil {
		return r.Err
	}
	r.Submissions = append(r.Submissions, samples)
	return nil
}

// FakeVoice transcribes every audio payload to Transcript and echoes
// synthesized text back as bytes.
type FakeVoice struct {
	Transcript core.Transcript
	Err        error
}

// Transcribe implements core.VoiceGateway.
func (v *FakeVoice) Transcribe(ctx context.Context, audio []byte, format, language string) (core.Transcript, error) {
	if v.Err != nil {
		return core.Transcript{}, v.Err
	}
	return v.Transcript, nil
}

// Synthesize implements core.VoiceGateway.
func (v *FakeVoice) Synthesize(ctx context.Context, text, language, voice string) (core.SpeechAudio, error) {
	if v.Err != nil {
		return core.SpeechAudio{}, v.Err
	}
	return core.SpeechAudio{Audio: []byte(text)}, nil
}

var (
	_ core.IntentClassifier = (*FixedClassifier)(nil)
	_ core.EntityExtractor  = (*FixedExtractor)(nil)
	_ core.LanguageModel    = (*ScriptedLLM)(nil)
	_ core.SearchExecutor   = (*FakeSearch)(nil)
	_ core.Retrainer        = (*FakeRetrainer)(nil)
	_ core.VoiceGateway     = (*FakeVoice)(nil)
)
