// Package voice adapts the external speech services: speech-to-text for
// incoming voice queries and text-to-speech for spoken replies.
package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/httpjson"
	"github.com/querypilot/querypilot/logging"
)

// DefaultLanguage applies when the caller does not specify one.
const DefaultLanguage = "en"

// Options configure the voice client.
type Options struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Voice selects the TTS voice when the caller leaves it empty.
	Voice string
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Client calls the speech service's /transcribe and /synthesize endpoints.
// Audio crosses the wire base64-encoded inside JSON.
type Client struct {
	baseURL      string
	client       *http.Client
	defaultVoice string
	logger       logging.Logger
}

// New constructs a voice client for the given base URL.
func New(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{Voice: "default", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpjson.NewClient()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Client{baseURL: baseURL, client: opts.HTTPClient, defaultVoice: opts.Voice, logger: opts.Logger}
}

type transcribeRequest struct {
	Audio    string `json:"audio"` // base64
	Format   string `json:"format"`
	Language string `json:"language,omitempty"`
}

type transcribeResponse struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Transcribe converts spoken audio to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, format, language string) (core.Transcript, error) {
	if len(audio) == 0 {
		return core.Transcript{}, fmt.Errorf("empty audio payload")
	}
	req := transcribeRequest{
		Audio:    base64.StdEncoding.EncodeToString(audio),
		Format:   format,
		Language: language,
	}
	start := time.Now()
	var resp transcribeResponse
	err := httpjson.Post(ctx, c.client, c.baseURL, "/transcribe", req, &resp)
	httpjson.LogCall(c.logger, "transcribe", time.Since(start), err)
	if err != nil {
		return core.Transcript{}, err
	}
	lang := resp.Language
	if lang == "" {
		lang = language
	}
	return core.Transcript{Text: resp.Text, Language: lang, Confidence: resp.Confidence}, nil
}

type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Voice    string `json:"voice"`
}

type synthesizeResponse struct {
	Audio      string `json:"audio"` // base64
	DurationMS int    `json:"duration_ms,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// Synthesize converts reply text to spoken audio.
func (c *Client) Synthesize(ctx context.Context, text, language, voice string) (core.SpeechAudio, error) {
	if text == "" {
		return core.SpeechAudio{}, fmt.Errorf("empty synthesis text")
	}
	if language == "" {
		language = DefaultLanguage
	}
	if voice == "" {
		voice = c.defaultVoice
	}
	start := time.Now()
	var resp synthesizeResponse
	err := httpjson.Post(ctx, c.client, c.baseURL, "/synthesize", synthesizeRequest{Text: text, Language: language, Voice: voice}, &resp)
	httpjson.LogCall(c.logger, "synthesize", time.Since(start), err)
	if err != nil {
		return core.SpeechAudio{}, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		return core.SpeechAudio{}, fmt.Errorf("decode synthesized audio: %w", err)
	}
	return core.SpeechAudio{Audio: audio, DurationMS: resp.DurationMS, SampleRate: resp.SampleRate}, nil
}

var _ core.VoiceGateway = (*Client)(nil)
