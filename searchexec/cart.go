package searchexec

import (
	"context"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/internal/httpjson"
)

type buildCartRequest struct {
	Items   []core.CartItem `json:"items"`
	StoreID string          `json:"store_id,omitempty"`
	Module  string          `json:"module,omitempty"`
}

// BuildCart asks the cart-construction helper to match the extracted
// item-quantity pairs against the store's catalog.
func (c *Client) BuildCart(ctx context.Context, items []core.CartItem, storeID, module string) (core.CartSummary, error) {
	start := time.Now()
	var resp core.CartSummary
	err := httpjson.Post(ctx, c.client, c.baseURL, "/cart", buildCartRequest{Items: items, StoreID: storeID, Module: module}, &resp)
	httpjson.LogCall(c.logger, "cart", time.Since(start), err)
	if err != nil {
		return core.CartSummary{}, err
	}
	return resp, nil
}

var _ core.CartBuilder = (*Client)(nil)
