package commands_test

import (
	"context"
	"errors"
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStockCatalog struct {
	mock.Mock
}

func (m *MockStockCatalog) PushStocks(ctx context.Context, counts map[string]int) error {
	args := m.Called(ctx, counts)
	return args.Error(0)
}

func TestPushStockCommandHandler_Handle(t *testing.T) {
	newHandler := func(accounts *MockAccountRepository, catalog *MockStockCatalog) commands.PushStockCommandHandler {
		uow := &fakeUnitOfWork{accounts: accounts}
		return commands.NewPushStockCommandHandler(fakeAccountUoWFactory{uow: uow}, catalog, discardLogger())
	}

	t.Run("should push keyed counts and keep the unbound bucket local", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		catalog := &MockStockCatalog{}
		accounts.On("FreeCountByProduct", mock.Anything).
			Return(map[string]int{"sku-100": 3, "sku-200": 1, ports.UnboundKey: 5}, nil).Once()
		catalog.On("PushStocks", mock.Anything, map[string]int{"sku-100": 3, "sku-200": 1}).Return(nil).Once()
		handler := newHandler(accounts, catalog)

		cmd, err := commands.NewPushStockCommand()
		require.NoError(t, err)
		counts, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 5, counts[ports.UnboundKey])
		assert.Equal(t, 3, counts["sku-100"])
		accounts.AssertExpectations(t)
		catalog.AssertExpectations(t)
	})

	t.Run("should skip the push when only unbound inventory exists", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		catalog := &MockStockCatalog{}
		accounts.On("FreeCountByProduct", mock.Anything).
			Return(map[string]int{ports.UnboundKey: 5}, nil).Once()
		handler := newHandler(accounts, catalog)

		cmd, err := commands.NewPushStockCommand()
		require.NoError(t, err)
		counts, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 5, counts[ports.UnboundKey])
		catalog.AssertNotCalled(t, "PushStocks", mock.Anything, mock.Anything)
	})

	t.Run("should surface a catalog failure", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		catalog := &MockStockCatalog{}
		accounts.On("FreeCountByProduct", mock.Anything).
			Return(map[string]int{"sku-100": 3}, nil).Once()
		catalog.On("PushStocks", mock.Anything, mock.Anything).Return(errors.New("gateway timeout")).Once()
		handler := newHandler(accounts, catalog)

		cmd, err := commands.NewPushStockCommand()
		require.NoError(t, err)
		_, err = handler.Handle(t.Context(), cmd)

		require.Error(t, err)
	})
}

func TestAllocateAccountCommandHandler_Handle(t *testing.T) {
	newHandler := func(accounts *MockAccountRepository) commands.AllocateAccountCommandHandler {
		uow := &fakeUnitOfWork{accounts: accounts}
		return commands.NewAllocateAccountCommandHandler(fakeAccountUoWFactory{uow: uow}, discardLogger())
	}

	t.Run("should preview the next account without consuming", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Allocate", mock.Anything, "sku-100").Return(freeAccount(t), nil).Once()
		handler := newHandler(accounts)

		cmd, err := commands.NewAllocateAccountCommand("sku-100")
		require.NoError(t, err)
		preview, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", preview.Login)
		assert.Equal(t, "s3cret", preview.Secret)
		assert.Equal(t, "ABCD-1234", preview.SecondFactor)
		assert.Equal(t, "sku-100", preview.ProductBinding)
		accounts.AssertExpectations(t)
		accounts.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
	})

	t.Run("should fall back to any free account for an unknown key", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Allocate", mock.Anything, "sku-999").
			Return(nil, errs.NewObjectNotFoundError("account", "sku-999")).Once()
		accounts.On("Allocate", mock.Anything, "").Return(freeAccount(t), nil).Once()
		handler := newHandler(accounts)

		cmd, err := commands.NewAllocateAccountCommand("sku-999")
		require.NoError(t, err)
		preview, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", preview.Login)
		accounts.AssertExpectations(t)
	})

	t.Run("should report exhaustion when nothing is free", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accounts.On("Allocate", mock.Anything, "").
			Return(nil, errs.NewObjectNotFoundError("account", "")).Once()
		handler := newHandler(accounts)

		cmd, err := commands.NewAllocateAccountCommand("")
		require.NoError(t, err)
		_, err = handler.Handle(t.Context(), cmd)

		assert.ErrorIs(t, err, commands.ErrAllocationExhausted)
	})
}
