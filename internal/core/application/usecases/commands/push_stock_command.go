package commands

import (
	"errors"

	"fulfillment/internal/pkg/guard"
)

var (
	ErrPushStockCommandIsNotConstructed = errors.New(
		"PushStockCommand must be created via NewPushStockCommand constructor",
	)
)

// PushStockCommand requests a push of current free inventory counts to the
// remote catalog.
type PushStockCommand struct {
	guard guard.ConstructorGuard
}

// NewPushStockCommand creates the command.
func NewPushStockCommand() (PushStockCommand, error) {
	return PushStockCommand{
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c PushStockCommand) Validate() error {
	return c.guard.Validate(ErrPushStockCommandIsNotConstructed)
}
