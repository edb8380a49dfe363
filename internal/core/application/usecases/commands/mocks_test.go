package commands_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/transition"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/account"
	"fulfillment/internal/core/domain/model/ledger"
	"fulfillment/internal/core/domain/model/remote"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUnitOfWork hands out the mocked repositories without real transaction
// bookkeeping. Step isolation is covered by the integration suite; handler
// tests only care about the calls made inside the transactions.
type fakeUnitOfWork struct {
	accounts ports.AccountRepository
	ledger   ports.LedgerRepository
	claims   ports.ClaimRepository
}

func (u *fakeUnitOfWork) Begin(_ context.Context) error    { return nil }
func (u *fakeUnitOfWork) Commit(_ context.Context) error   { return nil }
func (u *fakeUnitOfWork) Rollback(_ context.Context) error { return nil }

func (u *fakeUnitOfWork) AccountRepository() ports.AccountRepository { return u.accounts }
func (u *fakeUnitOfWork) LedgerRepository() ports.LedgerRepository   { return u.ledger }
func (u *fakeUnitOfWork) ClaimRepository() ports.ClaimRepository     { return u.claims }

type fakeUoWFactory struct {
	uow *fakeUnitOfWork
}

func (f fakeUoWFactory) Create() commands.UoW { return f.uow }

type fakeAccountUoWFactory struct {
	uow *fakeUnitOfWork
}

func (f fakeAccountUoWFactory) Create() commands.AccountUoW { return f.uow }

type fakeLedgerUoWFactory struct {
	uow *fakeUnitOfWork
}

func (f fakeLedgerUoWFactory) Create() commands.LedgerUoW { return f.uow }

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Allocate(ctx context.Context, productKey string) (*account.Account, error) {
	args := m.Called(ctx, productKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Consume(ctx context.Context, login string) error {
	args := m.Called(ctx, login)
	return args.Error(0)
}

func (m *MockAccountRepository) ReleaseAllocation(ctx context.Context, login string) error {
	args := m.Called(ctx, login)
	return args.Error(0)
}

func (m *MockAccountRepository) FreeCountByProduct(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockAccountRepository) Append(ctx context.Context, accounts []*account.Account) (ports.AppendOutcome, error) {
	args := m.Called(ctx, accounts)
	return args.Get(0).(ports.AppendOutcome), args.Error(1)
}

func (m *MockAccountRepository) Get(ctx context.Context, login string) (*account.Account, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Upsert(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) Get(ctx context.Context, orderID int64) (*ledger.Entry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Acquire(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimRepository) Complete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockClaimRepository) Release(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type MockRemoteOrderGateway struct {
	mock.Mock
}

func (m *MockRemoteOrderGateway) GetOrder(ctx context.Context, orderID int64) (remote.OrderSnapshot, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(remote.OrderSnapshot), args.Error(1)
}

func (m *MockRemoteOrderGateway) ListNewOrders(ctx context.Context) ([]remote.OrderSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]remote.OrderSnapshot), args.Error(1)
}

func (m *MockRemoteOrderGateway) SetStatus(ctx context.Context, orderID int64, status, substatus string) error {
	args := m.Called(ctx, orderID, status, substatus)
	return args.Error(0)
}

func (m *MockRemoteOrderGateway) SetStatusDeliveredAt(ctx context.Context, orderID int64, deliveredAt time.Time) error {
	args := m.Called(ctx, orderID, deliveredAt)
	return args.Error(0)
}

func (m *MockRemoteOrderGateway) ConfirmShipment(ctx context.Context, orderID, shipmentID int64, items []remote.Item) error {
	args := m.Called(ctx, orderID, shipmentID, items)
	return args.Error(0)
}

type MockStatusDriver struct {
	mock.Mock
}

func (m *MockStatusDriver) EnsureReadyToShip(ctx context.Context, orderID int64) transition.Outcome {
	return m.Called(ctx, orderID).Get(0).(transition.Outcome)
}

func (m *MockStatusDriver) ConfirmShipment(ctx context.Context, orderID int64) transition.Outcome {
	return m.Called(ctx, orderID).Get(0).(transition.Outcome)
}

func (m *MockStatusDriver) AdvanceToInTransit(ctx context.Context, orderID int64) transition.Outcome {
	return m.Called(ctx, orderID).Get(0).(transition.Outcome)
}

func (m *MockStatusDriver) AdvanceToDelivered(ctx context.Context, orderID int64) transition.Outcome {
	return m.Called(ctx, orderID).Get(0).(transition.Outcome)
}

type MockBuyerMessenger struct {
	mock.Mock
}

func (m *MockBuyerMessenger) SendToBuyer(ctx context.Context, orderID int64, text string) error {
	args := m.Called(ctx, orderID, text)
	return args.Error(0)
}

type MockStockCountPusher struct {
	mock.Mock
}

func (m *MockStockCountPusher) Push(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
