package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/account"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAppendHandler(accounts *MockAccountRepository) commands.AppendAccountsCommandHandler {
	uow := &fakeUnitOfWork{accounts: accounts}
	return commands.NewAppendAccountsCommandHandler(fakeAccountUoWFactory{uow: uow}, discardLogger())
}

func TestAppendAccountsCommandHandler_Handle(t *testing.T) {
	t.Run("should import two-field and three-field lines", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Append", mock.Anything, mock.MatchedBy(func(batch []*account.Account) bool {
			return len(batch) == 2 &&
				batch[0].Login() == "first@example.com" &&
				batch[0].SecondFactor() == "" &&
				batch[1].Login() == "second@example.com" &&
				batch[1].SecondFactor() == "ABCD-1234"
		})).Return(ports.AppendOutcome{Added: []string{"first@example.com", "second@example.com"}}, nil).Once()
		handler := newAppendHandler(accounts)

		cmd, err := commands.NewAppendAccountsCommand(
			"first@example.com ; pass1\nsecond@example.com ; pass2 ; ABCD-1234", "")
		require.NoError(t, err)
		result, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Len(t, result.Added, 2)
		assert.Empty(t, result.Duplicates)
		assert.Empty(t, result.Malformed)
		accounts.AssertExpectations(t)
	})

	t.Run("should apply the product binding to every line", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Append", mock.Anything, mock.MatchedBy(func(batch []*account.Account) bool {
			return len(batch) == 1 && batch[0].ProductBinding() == "sku-100"
		})).Return(ports.AppendOutcome{Added: []string{"user@example.com"}}, nil).Once()
		handler := newAppendHandler(accounts)

		cmd, err := commands.NewAppendAccountsCommand("user@example.com ; pass", "sku-100")
		require.NoError(t, err)
		_, err = handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		accounts.AssertExpectations(t)
	})

	t.Run("should import good lines and report the malformed ones", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Append", mock.Anything, mock.MatchedBy(func(batch []*account.Account) bool {
			return len(batch) == 1 && batch[0].Login() == "user@example.com"
		})).Return(ports.AppendOutcome{Added: []string{"user@example.com"}}, nil).Once()
		handler := newAppendHandler(accounts)

		cmd, err := commands.NewAppendAccountsCommand(
			"user@example.com ; pass\nlogin-without-password\n; pass-without-login", "")
		require.NoError(t, err)
		result, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, []string{"user@example.com"}, result.Added)
		assert.Len(t, result.Malformed, 2)
		accounts.AssertExpectations(t)
	})

	t.Run("should skip empty lines", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Append", mock.Anything, mock.MatchedBy(func(batch []*account.Account) bool {
			return len(batch) == 2
		})).Return(ports.AppendOutcome{Added: []string{"a", "b"}}, nil).Once()
		handler := newAppendHandler(accounts)

		cmd, err := commands.NewAppendAccountsCommand(
			"a ; pass\n\n   \nb ; pass", "")
		require.NoError(t, err)
		_, err = handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		accounts.AssertExpectations(t)
	})

	t.Run("should fail when no line parses", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		handler := newAppendHandler(accounts)

		cmd, err := commands.NewAppendAccountsCommand("garbage line\nanother one", "")
		require.NoError(t, err)
		result, err := handler.Handle(t.Context(), cmd)

		require.Error(t, err)
		assert.Len(t, result.Malformed, 2)
		accounts.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("should surface duplicates reported by the repository", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Append", mock.Anything, mock.Anything).
			Return(ports.AppendOutcome{Duplicates: []string{"user@example.com"}}, nil).Once()
		handler := newAppendHandler(accounts)

		cmd, err := commands.NewAppendAccountsCommand("user@example.com ; pass", "")
		require.NoError(t, err)
		result, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Empty(t, result.Added)
		assert.Equal(t, []string{"user@example.com"}, result.Duplicates)
		accounts.AssertExpectations(t)
	})
}

func TestNewAppendAccountsCommand(t *testing.T) {
	t.Run("should fail with blank text", func(t *testing.T) {
		_, err := commands.NewAppendAccountsCommand("   \n  ", "")

		require.Error(t, err)
	})

	t.Run("should trim the product binding", func(t *testing.T) {
		cmd, err := commands.NewAppendAccountsCommand("user ; pass", "  sku-100  ")

		require.NoError(t, err)
		assert.Equal(t, "sku-100", cmd.ProductBinding())
	})

	t.Run("should fail validation for zero-value command", func(t *testing.T) {
		var cmd commands.AppendAccountsCommand

		assert.ErrorIs(t, cmd.Validate(), commands.ErrAppendAccountsCommandIsNotConstructed)
	})
}
