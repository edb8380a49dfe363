package queries

import (
	"context"

	"fulfillment/internal/core/ports"

	"gorm.io/gorm"
)

// FreeStockQueryHandler reads free inventory counts from the database.
type FreeStockQueryHandler struct {
	db *gorm.DB
}

// NewFreeStockQueryHandler creates a handler for inventory count queries.
func NewFreeStockQueryHandler(db *gorm.DB) FreeStockQueryHandler {
	return FreeStockQueryHandler{db: db}
}

// Handle returns per-product counts of free accounts, sorted by product key
// for stable output. Reserved accounts are mid-fulfillment and not counted.
// Accounts without a binding fall into the unbound bucket.
func (h FreeStockQueryHandler) Handle(ctx context.Context, query FreeStockQuery) ([]FreeStockQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	buckets := make([]FreeStockQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(NULLIF(product_binding, ''), ?) AS product_key,
			COUNT(*) AS free
		FROM accounts
		WHERE NOT consumed AND NOT reserved
		GROUP BY product_key
		ORDER BY product_key
	`, ports.UnboundKey).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var bucket FreeStockQueryResponse
		if err = rows.Scan(&bucket.ProductKey, &bucket.Free); err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return buckets, nil
}
