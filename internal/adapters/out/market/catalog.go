package market

import (
	"context"
	"fmt"
)

// Catalog implements StockCatalog over the partner API stocks endpoint.
type Catalog struct {
	client *Client
}

// NewCatalog creates the stock catalog adapter.
func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client}
}

type stocksBody struct {
	SKUs []stockSKU `json:"skus"`
}

type stockSKU struct {
	SKU   string      `json:"sku"`
	Items []stockItem `json:"items"`
}

type stockItem struct {
	Count int `json:"count"`
}

// PushStocks replaces the remote availability counts with the given
// per-SKU values. SKUs absent from the map keep their remote counts.
func (c *Catalog) PushStocks(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	body := stocksBody{SKUs: make([]stockSKU, 0, len(counts))}
	for sku, count := range counts {
		if count < 0 {
			count = 0
		}
		body.SKUs = append(body.SKUs, stockSKU{
			SKU:   sku,
			Items: []stockItem{{Count: count}},
		})
	}

	path := fmt.Sprintf("/campaigns/%d/offers/stocks", c.client.campaignID)
	if err := c.client.putJSON(ctx, path, body, nil); err != nil {
		return fmt.Errorf("push %d stock counts: %w", len(counts), err)
	}
	return nil
}
