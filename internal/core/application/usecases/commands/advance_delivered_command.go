package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrAdvanceDeliveredCommandIsNotConstructed = errors.New(
		"AdvanceDeliveredCommand must be created via NewAdvanceDeliveredCommand constructor",
	)
)

// AdvanceDeliveredCommand requests the final operator-triggered step: move
// the remote order into the delivered status and close the ledger entry.
type AdvanceDeliveredCommand struct { //nolint:recvcheck //using for validation
	orderID int64

	guard guard.ConstructorGuard
}

// NewAdvanceDeliveredCommand creates the command for the given remote order id.
func NewAdvanceDeliveredCommand(orderID int64) (AdvanceDeliveredCommand, error) {
	cmd := AdvanceDeliveredCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return AdvanceDeliveredCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AdvanceDeliveredCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceDeliveredCommandIsNotConstructed)
}

// OrderID returns the remote order identifier.
func (c AdvanceDeliveredCommand) OrderID() int64 {
	return c.orderID
}

func (c *AdvanceDeliveredCommand) setOrderID(orderID int64) error {
	if orderID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("orderID",
			fmt.Errorf("%d is not a positive order id", orderID))
	}

	c.orderID = orderID
	return nil
}
