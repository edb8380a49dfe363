package cmd

import (
	"log/slog"

	"fulfillment/internal/adapters/out/market"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/core/application/transition"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use case handlers. All Create*
// methods are cheap; handlers hold no per-request state and may be built
// once at startup.
type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	client     *market.Client
	gateway    *market.Gateway
	messenger  *market.Messenger
	catalog    *market.Catalog
	driver     *transition.Driver
	logger     *slog.Logger
}

// NewCompositionRoot builds the shared adapters from configuration.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) CompositionRoot {
	client := market.NewClient(config.MarketBaseURL, config.MarketAPIKey,
		config.MarketCampaignID, config.MarketBusinessID, 0)
	gateway := market.NewGateway(client)

	return CompositionRoot{
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB, logger),
		client:     client,
		gateway:    gateway,
		messenger:  market.NewMessenger(client),
		catalog:    market.NewCatalog(client),
		driver:     transition.NewDriver(gateway, transition.DefaultRetryPolicy(), logger),
		logger:     logger,
	}
}

func (c *CompositionRoot) CreateFulfillOrderCommandHandler() commands.FulfillOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})

	pushStockHandler := c.CreatePushStockCommandHandler()
	return commands.NewFulfillOrderCommandHandler(f, c.gateway, c.driver,
		c.messenger, &pushStockHandler, c.logger)
}

func (c *CompositionRoot) CreateAdvanceInTransitCommandHandler() commands.AdvanceInTransitCommandHandler {
	var f commands.LedgerUoWFactory = FuncLedgerUoWFactory(func() commands.LedgerUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAdvanceInTransitCommandHandler(f, c.driver, c.logger)
}

func (c *CompositionRoot) CreateAdvanceDeliveredCommandHandler() commands.AdvanceDeliveredCommandHandler {
	var f commands.LedgerUoWFactory = FuncLedgerUoWFactory(func() commands.LedgerUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAdvanceDeliveredCommandHandler(f, c.driver, c.logger)
}

func (c *CompositionRoot) CreateAppendAccountsCommandHandler() commands.AppendAccountsCommandHandler {
	var f commands.AccountUoWFactory = FuncAccountUoWFactory(func() commands.AccountUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAppendAccountsCommandHandler(f, c.logger)
}

func (c *CompositionRoot) CreateAllocateAccountCommandHandler() commands.AllocateAccountCommandHandler {
	var f commands.AccountUoWFactory = FuncAccountUoWFactory(func() commands.AccountUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAllocateAccountCommandHandler(f, c.logger)
}

func (c *CompositionRoot) CreatePushStockCommandHandler() commands.PushStockCommandHandler {
	var f commands.AccountUoWFactory = FuncAccountUoWFactory(func() commands.AccountUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPushStockCommandHandler(f, c.catalog, c.logger)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateFreeStockQueryHandler() queries.FreeStockQueryHandler {
	return queries.NewFreeStockQueryHandler(c.gormDB)
}

// CreateJobManager wires the background jobs.
func (c *CompositionRoot) CreateJobManager(config Config) *jobs.JobManager {
	var f commands.LedgerUoWFactory = FuncLedgerUoWFactory(func() commands.LedgerUoW {
		return c.uowFactory.Create()
	})

	return jobs.NewJobManager(
		c.gateway,
		f,
		c.CreateFulfillOrderCommandHandler(),
		c.CreatePushStockCommandHandler(),
		config.PollSchedule,
		config.StockSyncSchedule,
		c.logger,
	)
}

type FuncAccountUoWFactory func() commands.AccountUoW

func (f FuncAccountUoWFactory) Create() commands.AccountUoW {
	return f()
}

type FuncLedgerUoWFactory func() commands.LedgerUoW

func (f FuncLedgerUoWFactory) Create() commands.LedgerUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
