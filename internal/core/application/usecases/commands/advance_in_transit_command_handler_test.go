package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/application/transition"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/ledger"
	"fulfillment/internal/core/domain/model/remote"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func shippedEntry(t *testing.T, orderID int64) *ledger.Entry {
	t.Helper()

	entry, err := ledger.NewEntry(orderID, remote.StatusProcessing, remote.SubstatusReadyToShip,
		"Game Key", "Buyer B.", decimal.NewFromInt(499), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, entry.MarkShipped("user@example.com"))
	return entry
}

func TestAdvanceInTransitCommandHandler_Handle(t *testing.T) {
	newHandler := func(ledgerRepo *MockLedgerRepository, driver *MockStatusDriver) *commands.AdvanceInTransitCommandHandler {
		uow := &fakeUnitOfWork{ledger: ledgerRepo}
		handler := commands.NewAdvanceInTransitCommandHandler(fakeLedgerUoWFactory{uow: uow}, driver, discardLogger())
		return &handler
	}

	t.Run("should advance the remote order and mark the entry in transit", func(t *testing.T) {
		ledgerRepo := &MockLedgerRepository{}
		driver := &MockStatusDriver{}
		entry := shippedEntry(t, 1001)

		advance := driver.On("AdvanceToInTransit", mock.Anything, int64(1001)).
			Return(transition.Outcome{Status: transition.Succeeded, Target: remote.PhaseInTransit,
				ObservedStatus: remote.StatusProcessing, ObservedSubstatus: remote.SubstatusReadyToShip}).Once()
		get := ledgerRepo.On("Get", mock.Anything, int64(1001)).Return(entry, nil).Once()
		upsert := ledgerRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *ledger.Entry) bool {
			return e.Stage() == ledger.StageInTransit
		})).Return(nil).Once()
		mock.InOrder(advance, get, upsert)

		cmd, err := commands.NewAdvanceInTransitCommand(1001)
		require.NoError(t, err)
		outcome, err := newHandler(ledgerRepo, driver).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, transition.Succeeded, outcome.Status)
		ledgerRepo.AssertExpectations(t)
		driver.AssertExpectations(t)
	})

	t.Run("should not touch the ledger when the transition fails", func(t *testing.T) {
		ledgerRepo := &MockLedgerRepository{}
		driver := &MockStatusDriver{}
		driver.On("AdvanceToInTransit", mock.Anything, int64(1001)).
			Return(transition.Outcome{Status: transition.Rejected, Target: remote.PhaseInTransit,
				Reason: "order has no shipment to confirm"}).Once()

		cmd, err := commands.NewAdvanceInTransitCommand(1001)
		require.NoError(t, err)
		outcome, err := newHandler(ledgerRepo, driver).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, transition.Rejected, outcome.Status)
		ledgerRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		driver.AssertExpectations(t)
	})

	t.Run("should skip a missing ledger entry without failing", func(t *testing.T) {
		ledgerRepo := &MockLedgerRepository{}
		driver := &MockStatusDriver{}
		driver.On("AdvanceToInTransit", mock.Anything, int64(1001)).
			Return(transition.Outcome{Status: transition.AlreadyAtTarget, Target: remote.PhaseInTransit}).Once()
		ledgerRepo.On("Get", mock.Anything, int64(1001)).
			Return(nil, errs.NewObjectNotFoundError("ledger entry", int64(1001))).Once()

		cmd, err := commands.NewAdvanceInTransitCommand(1001)
		require.NoError(t, err)
		outcome, err := newHandler(ledgerRepo, driver).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, transition.AlreadyAtTarget, outcome.Status)
		ledgerRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("should reject an unconstructed command", func(t *testing.T) {
		handler := newHandler(&MockLedgerRepository{}, &MockStatusDriver{})

		_, err := handler.Handle(t.Context(), commands.AdvanceInTransitCommand{})

		assert.ErrorIs(t, err, commands.ErrAdvanceInTransitCommandIsNotConstructed)
	})
}

func TestAdvanceDeliveredCommandHandler_Handle(t *testing.T) {
	newHandler := func(ledgerRepo *MockLedgerRepository, driver *MockStatusDriver) *commands.AdvanceDeliveredCommandHandler {
		uow := &fakeUnitOfWork{ledger: ledgerRepo}
		handler := commands.NewAdvanceDeliveredCommandHandler(fakeLedgerUoWFactory{uow: uow}, driver, discardLogger())
		return &handler
	}

	t.Run("should close the ledger entry with a delivery timestamp", func(t *testing.T) {
		ledgerRepo := &MockLedgerRepository{}
		driver := &MockStatusDriver{}
		entry := shippedEntry(t, 1001)
		entry.MarkInTransit()

		driver.On("AdvanceToDelivered", mock.Anything, int64(1001)).
			Return(transition.Outcome{Status: transition.Succeeded, Target: remote.PhaseDelivered,
				ObservedStatus: remote.StatusDelivery}).Once()
		ledgerRepo.On("Get", mock.Anything, int64(1001)).Return(entry, nil).Once()
		ledgerRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *ledger.Entry) bool {
			return e.Stage() == ledger.StageDone && e.DeliveredAt() != nil
		})).Return(nil).Once()

		cmd, err := commands.NewAdvanceDeliveredCommand(1001)
		require.NoError(t, err)
		outcome, err := newHandler(ledgerRepo, driver).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, transition.Succeeded, outcome.Status)
		ledgerRepo.AssertExpectations(t)
		driver.AssertExpectations(t)
	})

	t.Run("should not touch the ledger when the remote refuses", func(t *testing.T) {
		ledgerRepo := &MockLedgerRepository{}
		driver := &MockStatusDriver{}
		driver.On("AdvanceToDelivered", mock.Anything, int64(1001)).
			Return(transition.Outcome{Status: transition.Unavailable, Target: remote.PhaseDelivered,
				Reason: "gateway timeout"}).Once()

		cmd, err := commands.NewAdvanceDeliveredCommand(1001)
		require.NoError(t, err)
		outcome, err := newHandler(ledgerRepo, driver).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, transition.Unavailable, outcome.Status)
		ledgerRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("should skip a missing ledger entry without failing", func(t *testing.T) {
		ledgerRepo := &MockLedgerRepository{}
		driver := &MockStatusDriver{}
		driver.On("AdvanceToDelivered", mock.Anything, int64(1001)).
			Return(transition.Outcome{Status: transition.AlreadyAtTarget, Target: remote.PhaseDelivered}).Once()
		ledgerRepo.On("Get", mock.Anything, int64(1001)).
			Return(nil, errs.NewObjectNotFoundError("ledger entry", int64(1001))).Once()

		cmd, err := commands.NewAdvanceDeliveredCommand(1001)
		require.NoError(t, err)
		_, err = newHandler(ledgerRepo, driver).Handle(t.Context(), cmd)

		require.NoError(t, err)
		ledgerRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("should reject an unconstructed command", func(t *testing.T) {
		handler := newHandler(&MockLedgerRepository{}, &MockStatusDriver{})

		_, err := handler.Handle(t.Context(), commands.AdvanceDeliveredCommand{})

		assert.ErrorIs(t, err, commands.ErrAdvanceDeliveredCommandIsNotConstructed)
	})
}
