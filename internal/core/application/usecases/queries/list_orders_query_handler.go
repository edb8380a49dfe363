package queries

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// ListOrdersQueryHandler reads ledger pages straight from the database.
// Uses direct SQL for read performance; aggregates are not constructed.
type ListOrdersQueryHandler struct {
	db *gorm.DB
}

// NewListOrdersQueryHandler creates a handler for ledger page queries.
func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

// Handle returns one page of ledger entries sorted by remote creation time
// descending, ties broken by insertion order, plus the total count.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) (OrdersPage, error) {
	if err := query.Validate(); err != nil {
		return OrdersPage{}, err
	}

	page := OrdersPage{Orders: make([]OrderView, 0, query.Limit())}

	if err := h.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM ledger_entries
	`).Scan(&page.Total).Error; err != nil {
		return OrdersPage{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			order_id,
			remote_status,
			remote_substatus,
			stage,
			product,
			buyer_label,
			total_amount,
			created_at,
			delivered_at,
			account_login
		FROM ledger_entries
		ORDER BY created_at DESC, pos DESC
		LIMIT ? OFFSET ?
	`, query.Limit(), query.Offset()).Rows()
	if err != nil {
		return OrdersPage{}, err
	}
	defer rows.Close()

	for rows.Next() {
		view, scanErr := scanOrderView(rows)
		if scanErr != nil {
			return OrdersPage{}, scanErr
		}
		page.Orders = append(page.Orders, view)
	}

	if err = rows.Err(); err != nil {
		return OrdersPage{}, err
	}

	return page, nil
}

func scanOrderView(rows *sql.Rows) (OrderView, error) {
	var (
		view        OrderView
		deliveredAt sql.NullTime
	)

	err := rows.Scan(
		&view.OrderID,
		&view.RemoteStatus,
		&view.RemoteSubstatus,
		&view.Stage,
		&view.Product,
		&view.BuyerLabel,
		&view.TotalAmount,
		&view.CreatedAt,
		&deliveredAt,
		&view.AccountLogin,
	)
	if err != nil {
		return OrderView{}, err
	}

	if deliveredAt.Valid {
		t := deliveredAt.Time.In(time.UTC)
		view.DeliveredAt = &t
	}
	return view, nil
}
