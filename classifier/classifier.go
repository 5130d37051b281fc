// Package classifier adapts the external fast intent classifier.
package classifier

import (
	"context"
	"net/http"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/httpjson"
	"github.com/querypilot/querypilot/logging"
)

// Options configure the classifier client.
type Options struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Client calls the classifier service's /classify endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// New constructs a classifier client for the given base URL.
func New(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpjson.NewClient()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Client{baseURL: baseURL, client: opts.HTTPClient, logger: opts.Logger}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// Classify sends the text for intent classification. Unknown labels pass
// through unchanged; the understanding engine handles normalization.
func (c *Client) Classify(ctx context.Context, text string) (core.ClassifierResult, error) {
	start := time.Now()
	var resp classifyResponse
	err := httpjson.Post(ctx, c.client, c.baseURL, "/classify", classifyRequest{Text: text}, &resp)
	httpjson.LogCall(c.logger, "classifier", time.Since(start), err)
	if err != nil {
		return core.ClassifierResult{}, err
	}
	intent := resp.Intent
	if intent == "" {
		intent = core.IntentUnknown
	}
	return core.ClassifierResult{
		Intent:     intent,
		Confidence: resp.Confidence,
		Entities:   resp.Entities,
	}, nil
}

var _ core.IntentClassifier = (*Client)(nil)
