// Package httpjson is the shared JSON-over-HTTP helper used by the external
// service adapters.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/querypilot/querypilot/logging"
)

// DefaultTimeout applies when an adapter does not bring its own http.Client.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response gets echoed into the error.
const maxErrorBody = 512

// NewClient returns an http.Client with the default adapter timeout.
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// LogCall records one adapter round-trip, preferring the structured
// LogAdapterCall form when the logger provides it.
func LogCall(l logging.Logger, adapter string, dur time.Duration, err error) {
	if al, ok := l.(logging.AdapterCallLogger); ok {
		al.LogAdapterCall(adapter, dur, err)
		return
	}
	if err != nil {
		l.Warn("adapter call failed", "adapter", adapter, "duration", dur, "error", err)
		return
	}
	l.Debug("adapter call completed", "adapter", adapter, "duration", dur)
}

// Post sends in as a JSON body to baseURL+path and decodes the JSON response
// into out. out may be nil when the response body is irrelevant. Non-2xx
// responses become errors carrying the status and a bounded body excerpt.
func Post(ctx context.Context, client *http.Client, baseURL, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(excerpt))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
