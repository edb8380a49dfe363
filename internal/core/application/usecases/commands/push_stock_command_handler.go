package commands

import (
	"context"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/ports"
)

// PushStockCommandHandler aggregates free inventory per product key and
// pushes the counts to the remote catalog, so the storefront never sells
// more units than the inventory holds.
type PushStockCommandHandler struct {
	uowFactory AccountUoWFactory
	catalog    ports.StockCatalog
	logger     *slog.Logger
}

// NewPushStockCommandHandler creates a new PushStockCommandHandler.
func NewPushStockCommandHandler(
	uowFactory AccountUoWFactory,
	catalog ports.StockCatalog,
	logger *slog.Logger,
) PushStockCommandHandler {
	return PushStockCommandHandler{
		uowFactory: uowFactory,
		catalog:    catalog,
		logger:     logger.With("component", "push_stock"),
	}
}

// Handle reads the counts and pushes them. Unbound accounts are counted
// toward availability of every listed product by the remote side's own
// bucketing, so the synthetic unbound bucket itself is never pushed as a SKU.
func (h *PushStockCommandHandler) Handle(ctx context.Context, cmd PushStockCommand) (map[string]int, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	counts, err := h.freeCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate free inventory: %w", err)
	}

	push := make(map[string]int, len(counts))
	for key, n := range counts {
		if key == ports.UnboundKey {
			continue
		}
		push[key] = n
	}

	if len(push) == 0 {
		h.logger.InfoContext(ctx, "No keyed inventory to push")
		return counts, nil
	}

	if err = h.catalog.PushStocks(ctx, push); err != nil {
		return nil, fmt.Errorf("push stock counts: %w", err)
	}

	h.logger.InfoContext(ctx, "Stock counts pushed", "products", len(push))
	return counts, nil
}

// Push satisfies StockCountPusher for the fulfillment coordinator's
// best-effort post-consumption sync.
func (h *PushStockCommandHandler) Push(ctx context.Context) error {
	cmd, err := NewPushStockCommand()
	if err != nil {
		return err
	}
	_, err = h.Handle(ctx, cmd)
	return err
}

func (h *PushStockCommandHandler) freeCounts(ctx context.Context) (map[string]int, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	counts, err := uow.AccountRepository().FreeCountByProduct(ctx)
	if err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return counts, nil
}
