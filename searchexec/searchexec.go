// Package searchexec adapts the external search executor: structured product
// and store searches, free-text store-name resolution, and cart construction.
package searchexec

import (
	"context"
	"net/http"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/httpjson"
	"github.com/querypilot/querypilot/logging"
)

// Options configure the search executor client.
type Options struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Client calls the search executor's /search, /resolve-store and /cart
// endpoints.
type Client struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// New constructs a search executor client for the given base URL.
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

// Search runs a structured query. The filter shape is forwarded as-is; the
// executor interprets the module id to pick the index.
func (c *Client) Search(ctx context.Context, filters core.ExtractedFilters) (core.SearchResults, error) {
	start := time.Now()
	var resp core.SearchResults
	err := httpjson.Post(ctx, c.client, c.baseURL, "/search", filters, &resp)
	httpjson.LogCall(c.logger, "search", time.Since(start), err)
	if err != nil {
		return core.SearchResults{}, err
	}
	if resp.Total == 0 {
		resp.Total = len(resp.Items) + len(resp.Stores)
	}
	return resp, nil
}

type resolveStoreRequest struct {
	Name   string `json:"name"`
	Module string `json:"module,omitempty"`
}

// ResolveStore maps a free-text store name to a best-match store id with a
// match score. A miss is a zero-score match, not an error.
func (c *Client) ResolveStore(ctx context.Context, name, module string) (core.StoreMatch, error) {
	start := time.Now()
	var resp core.StoreMatch
	err := httpjson.Post(ctx, c.client, c.baseURL, "/resolve-store", resolveStoreRequest{Name: name, Module: module}, &resp)
	httpjson.LogCall(c.logger, "resolve-store", time.Since(start), err)
	if err != nil {
		return core.StoreMatch{}, err
	}
	return resp, nil
}

var _ core.SearchExecutor = (*Client)(nil)
