package learning

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/httpjson"
)

// submitMaxElapsed bounds the total retry window for one submission.
const submitMaxElapsed = 2 * time.Minute

// HTTPRetrainer forwards training samples to the external retraining
// endpoint, retrying transient failures with exponential backoff.
type HTTPRetrainer struct {
	baseURL string
	client  *http.Client
}

// RetrainerOptions configure the HTTP retrainer.
type RetrainerOptions struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// NewHTTPRetrainer constructs a retrainer for the given base URL.
func NewHTTPRetrainer(baseURL string, optFns ...func(o *RetrainerOptions)) *HTTPRetrainer {
	opts := RetrainerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpjson.NewClient()
	}
	return &HTTPRetrainer{baseURL: baseURL, client: opts.HTTPClient}
}

type submitRequest struct {
	Samples []core.TrainingSample `json:"samples"`
}

// Submit posts the samples to /retrain. Samples are treated additively by
// the endpoint, so a retried submission after a partial failure is harmless.
func (r *HTTPRetrainer) Submit(ctx context.Context, samples []core.TrainingSample) error {
	op := func() error {
		return httpjson.Post(ctx, r.client, r.baseURL, "/retrain", submitRequest{Samples: samples}, nil)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = submitMaxElapsed
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

var _ core.Retrainer = (*HTTPRetrainer)(nil)
