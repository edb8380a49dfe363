package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrAdvanceInTransitCommandIsNotConstructed = errors.New(
		"AdvanceInTransitCommand must be created via NewAdvanceInTransitCommand constructor",
	)
)

// AdvanceInTransitCommand requests the operator-triggered handoff step:
// confirm the shipment if it is still unconfirmed and move the remote order
// into the delivery status.
type AdvanceInTransitCommand struct { //nolint:recvcheck //using for validation
	orderID int64

	guard guard.ConstructorGuard
}

// NewAdvanceInTransitCommand creates the command for the given remote order id.
func NewAdvanceInTransitCommand(orderID int64) (AdvanceInTransitCommand, error) {
	cmd := AdvanceInTransitCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return AdvanceInTransitCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AdvanceInTransitCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceInTransitCommandIsNotConstructed)
}

// OrderID returns the remote order identifier.
func (c AdvanceInTransitCommand) OrderID() int64 {
	return c.orderID
}

func (c *AdvanceInTransitCommand) setOrderID(orderID int64) error {
	if orderID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("orderID",
			fmt.Errorf("%d is not a positive order id", orderID))
	}

	c.orderID = orderID
	return nil
}
