// Package extractor adapts the external NER service, normalizing its raw
// spans into the structured entity fields the understanding engine consumes.
package extractor

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/httpjson"
	"github.com/querypilot/querypilot/logging"
)

// Options configure the extractor client.
type Options struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Client calls the NER service's /extract endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// New constructs an extractor client for the given base URL.
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

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Entities []core.EntitySpan `json:"entities"`
	Items    []rawItem         `json:"items,omitempty"`
}

type rawItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Extract sends the text for named-entity recognition and folds the raw
// spans into structured fields by label.
func (c *Client) Extract(ctx context.Context, text string) (core.Entities, error) {
	start := time.Now()
	var resp extractResponse
	err := httpjson.Post(ctx, c.client, c.baseURL, "/extract", extractRequest{Text: text}, &resp)
	httpjson.LogCall(c.logger, "extractor", time.Since(start), err)
	if err != nil {
		return core.Entities{}, err
	}
	return normalize(resp), nil
}

// normalize maps span labels onto the structured entity fields. Label names
// follow the NER service's tag set.
func normalize(resp extractResponse) core.Entities {
	var out core.Entities
	out.Spans = resp.Entities
	for _, span := range resp.Entities {
		value := strings.TrimSpace(span.Text)
		if value == "" {
			continue
		}
		switch strings.ToUpper(span.Label) {
		case "FOOD", "DISH", "PRODUCT":
			out.Foods = append(out.Foods, value)
		case "STORE", "RESTAURANT", "BRAND_STORE":
			if out.StoreName == "" {
				out.StoreName = value
			}
		case "QUANTITY", "QTY":
			if out.Quantity == "" {
				out.Quantity = value
			}
		case "LOCATION", "LOC", "AREA":
			if out.Location == "" {
				out.Location = value
			}
		case "PREFERENCE", "DIET":
			out.Preferences = append(out.Preferences, strings.ToLower(value))
		case "VARIANT", "WEIGHT", "SIZE":
			if out.Variant == "" {
				out.Variant = value
			}
		}
	}
	for _, item := range resp.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		out.Items = append(out.Items, core.CartItem{Name: item.Name, Quantity: qty})
	}
	return out
}

var _ core.EntityExtractor = (*Client)(nil)
