package commands

import (
	"context"
	"errors"
	"log/slog"

	"fulfillment/internal/pkg/errs"
)

// AllocationPreview is the account the allocator would hand out next.
// The account stays unconsumed; the preview carries the full credential so
// an operator can fulfill manually when needed.
type AllocationPreview struct {
	Login          string
	Secret         string
	SecondFactor   string
	ProductBinding string
}

// AllocateAccountCommandHandler performs a peek allocation without consuming.
type AllocateAccountCommandHandler struct {
	uowFactory AccountUoWFactory
	logger     *slog.Logger
}

// NewAllocateAccountCommandHandler creates a new AllocateAccountCommandHandler.
func NewAllocateAccountCommandHandler(uowFactory AccountUoWFactory, logger *slog.Logger) AllocateAccountCommandHandler {
	return AllocateAccountCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "allocate_account"),
	}
}

// Handle selects the next account for the product key using the same order
// the fulfillment coordinator uses: keyed allocation first, then any free
// account. Returns ErrAllocationExhausted when inventory is empty.
func (h *AllocateAccountCommandHandler) Handle(ctx context.Context, cmd AllocateAccountCommand) (AllocationPreview, error) {
	if err := cmd.Validate(); err != nil {
		return AllocationPreview{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AllocationPreview{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.AccountRepository()
	acc, err := repo.Allocate(ctx, cmd.ProductKey())
	if err != nil && errors.Is(err, errs.ErrObjectNotFound) && cmd.ProductKey() != "" {
		acc, err = repo.Allocate(ctx, "")
	}
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return AllocationPreview{}, ErrAllocationExhausted
		}
		return AllocationPreview{}, err
	}

	// Preview path: the deferred rollback discards the reservation Allocate
	// took, so the account stays free.
	return AllocationPreview{
		Login:          acc.Login(),
		Secret:         acc.Secret(),
		SecondFactor:   acc.SecondFactor(),
		ProductBinding: acc.ProductBinding(),
	}, nil
}
