package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrAppendAccountsCommandIsNotConstructed = errors.New(
		"AppendAccountsCommand must be created via NewAppendAccountsCommand constructor",
	)
)

// AppendAccountsCommand carries a bulk import of credential accounts in the
// operator's line format, one account per line:
//
//	login ; password
//	login ; password ; 2fa-backup-code
//
// Field separators tolerate surrounding whitespace. ProductBinding applies
// to every account in the batch; empty means universal (unbound) accounts.
type AppendAccountsCommand struct { //nolint:recvcheck //using for validation
	text           string
	productBinding string

	guard guard.ConstructorGuard
}

// NewAppendAccountsCommand creates the import command from raw operator input.
func NewAppendAccountsCommand(text, productBinding string) (AppendAccountsCommand, error) {
	cmd := AppendAccountsCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setText(text); err != nil {
		return AppendAccountsCommand{}, err
	}
	cmd.productBinding = strings.TrimSpace(productBinding)

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AppendAccountsCommand) Validate() error {
	return c.guard.Validate(ErrAppendAccountsCommandIsNotConstructed)
}

// Text returns the raw import payload.
func (c AppendAccountsCommand) Text() string {
	return c.text
}

// ProductBinding returns the product key applied to the batch,
// empty for universal accounts.
func (c AppendAccountsCommand) ProductBinding() string {
	return c.productBinding
}

func (c *AppendAccountsCommand) setText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errs.NewValueIsRequiredError("text")
	}

	c.text = text
	return nil
}
