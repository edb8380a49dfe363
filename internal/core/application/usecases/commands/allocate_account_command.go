package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/pkg/guard"
)

var (
	ErrAllocateAccountCommandIsNotConstructed = errors.New(
		"AllocateAccountCommand must be created via NewAllocateAccountCommand constructor",
	)
)

// AllocateAccountCommand requests a dry-run allocation: pick the account the
// allocator would hand out for a product key and report it without consuming
// it. Operators use this to inspect inventory before manual fulfillment.
type AllocateAccountCommand struct { //nolint:recvcheck //using for validation
	productKey string

	guard guard.ConstructorGuard
}

// NewAllocateAccountCommand creates the command. An empty product key asks
// for any free account.
func NewAllocateAccountCommand(productKey string) (AllocateAccountCommand, error) {
	return AllocateAccountCommand{
		productKey: strings.TrimSpace(productKey),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AllocateAccountCommand) Validate() error {
	return c.guard.Validate(ErrAllocateAccountCommandIsNotConstructed)
}

// ProductKey returns the requested product key, empty for any product.
func (c AllocateAccountCommand) ProductKey() string {
	return c.productKey
}
