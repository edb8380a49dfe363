package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrFulfillOrderCommandIsNotConstructed = errors.New(
		"FulfillOrderCommand must be created via NewFulfillOrderCommand constructor",
	)
)

// FulfillOrderCommand requests end-to-end fulfillment of a newly observed
// order: allocate a credential, deliver it to the buyer, confirm shipment
// remotely, and record the result in the ledger.
//
// Example:
//
//	cmd, err := NewFulfillOrderCommand(558799)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
type FulfillOrderCommand struct { //nolint:recvcheck //using for validation
	orderID int64

	guard guard.ConstructorGuard
}

// NewFulfillOrderCommand creates a fulfillment command for the given remote
// order id. The id must be positive.
func NewFulfillOrderCommand(orderID int64) (FulfillOrderCommand, error) {
	cmd := FulfillOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return FulfillOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c FulfillOrderCommand) Validate() error {
	return c.guard.Validate(ErrFulfillOrderCommandIsNotConstructed)
}

// OrderID returns the remote order identifier.
func (c FulfillOrderCommand) OrderID() int64 {
	return c.orderID
}

func (c *FulfillOrderCommand) setOrderID(orderID int64) error {
	if orderID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("orderID",
			fmt.Errorf("%d is not a positive order id", orderID))
	}

	c.orderID = orderID
	return nil
}
