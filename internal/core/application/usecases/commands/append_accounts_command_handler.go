package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fulfillment/internal/core/domain/model/account"
)

// AppendAccountsResult reports the fate of every line in an import batch.
type AppendAccountsResult struct {
	// Added lists logins inserted as fresh inventory.
	Added []string

	// Duplicates lists logins skipped because an unconsumed record with the
	// same login already exists.
	Duplicates []string

	// Malformed lists input lines that could not be parsed. They are
	// reported back to the operator and never silently dropped.
	Malformed []string
}

// AppendAccountsCommandHandler imports credential accounts into inventory.
type AppendAccountsCommandHandler struct {
	uowFactory AccountUoWFactory
	logger     *slog.Logger
}

// NewAppendAccountsCommandHandler creates a new AppendAccountsCommandHandler.
func NewAppendAccountsCommandHandler(uowFactory AccountUoWFactory, logger *slog.Logger) AppendAccountsCommandHandler {
	return AppendAccountsCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "append_accounts"),
	}
}

// Handle parses the batch and appends the well-formed accounts in one
// transaction. A batch where no line parses fails with a validation error
// listing the malformed lines; a partially malformed batch imports the good
// lines and reports the bad ones.
func (h *AppendAccountsCommandHandler) Handle(ctx context.Context, cmd AppendAccountsCommand) (AppendAccountsResult, error) {
	if err := cmd.Validate(); err != nil {
		return AppendAccountsResult{}, err
	}

	accounts, malformed, err := parseAccountLines(cmd.Text(), cmd.ProductBinding())
	if err != nil {
		return AppendAccountsResult{Malformed: malformed}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return AppendAccountsResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	outcome, err := uow.AccountRepository().Append(ctx, accounts)
	if err != nil {
		return AppendAccountsResult{}, fmt.Errorf("append %d accounts: %w", len(accounts), err)
	}
	if err = uow.Commit(ctx); err != nil {
		return AppendAccountsResult{}, err
	}

	h.logger.InfoContext(ctx, "Accounts imported",
		"added", len(outcome.Added),
		"duplicates", len(outcome.Duplicates),
		"malformed", len(malformed))
	return AppendAccountsResult{
		Added:      outcome.Added,
		Duplicates: outcome.Duplicates,
		Malformed:  malformed,
	}, nil
}

// parseAccountLines parses the operator line format. Empty lines are
// skipped. A line is malformed when it has fewer than two fields or an
// empty login or password.
func parseAccountLines(text, productBinding string) ([]*account.Account, []string, error) {
	var (
		accounts  []*account.Account
		malformed []string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ";")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			malformed = append(malformed, line)
			continue
		}

		secondFactor := ""
		if len(fields) > 2 {
			secondFactor = fields[2]
		}

		acc, err := account.NewAccount(fields[0], fields[1], secondFactor, productBinding)
		if err != nil {
			malformed = append(malformed, line)
			continue
		}
		accounts = append(accounts, acc)
	}

	if len(accounts) == 0 {
		return nil, malformed, fmt.Errorf("no parsable account lines in input (%d malformed)", len(malformed))
	}
	return accounts, malformed, nil
}
