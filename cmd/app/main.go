package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"fulfillment/cmd"
	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/postgres/accountrepo"
	"fulfillment/internal/adapters/out/postgres/claimrepo"
	"fulfillment/internal/adapters/out/postgres/ledgerrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	gormDB := mustOpenDB(configs)

	app := cmd.NewCompositionRoot(configs, gormDB, logger)

	jobManager := app.CreateJobManager(configs)
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	e := echo.New()
	e.Use(middleware.Recover())

	server := httpin.NewServer(
		app.CreateFulfillOrderCommandHandler(),
		app.CreateAdvanceInTransitCommandHandler(),
		app.CreateAdvanceDeliveredCommandHandler(),
		app.CreateAppendAccountsCommandHandler(),
		app.CreateAllocateAccountCommandHandler(),
		app.CreatePushStockCommandHandler(),
		app.CreateListOrdersQueryHandler(),
		app.CreateGetOrderQueryHandler(),
		app.CreateFreeStockQueryHandler(),
	)
	server.RegisterRoutes(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil {
			e.Logger.Info("HTTP server stopped: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func mustOpenDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)

	gormDB, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err = gormDB.AutoMigrate(
		&accountrepo.AccountDTO{},
		&ledgerrepo.EntryDTO{},
		&claimrepo.ClaimDTO{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Single-instance deployment: a reservation surviving a restart belongs
	// to a crashed fulfillment attempt and goes back to the free pool.
	if err = gormDB.Model(&accountrepo.AccountDTO{}).
		Where("reserved = ?", true).
		Update("reserved", false).Error; err != nil {
		log.Fatalf("Failed to clear stale account reservations: %v", err)
	}

	return gormDB
}

func getConfigs() cmd.Config {
	return cmd.Config{
		HTTPPort:          goDotEnvVariable("HTTP_PORT"),
		DBHost:            goDotEnvVariable("DB_HOST"),
		DBPort:            goDotEnvVariable("DB_PORT"),
		DBUser:            goDotEnvVariable("DB_USER"),
		DBPassword:        goDotEnvVariable("DB_PASSWORD"),
		DBName:            goDotEnvVariable("DB_NAME"),
		DBSslMode:         goDotEnvVariable("DB_SSLMODE"),
		MarketBaseURL:     goDotEnvVariable("MARKET_BASE_URL"),
		MarketAPIKey:      goDotEnvVariable("MARKET_API_KEY"),
		MarketCampaignID:  goDotEnvInt64("MARKET_CAMPAIGN_ID"),
		MarketBusinessID:  goDotEnvInt64("MARKET_BUSINESS_ID"),
		PollSchedule:      goDotEnvVariable("POLL_SCHEDULE"),
		StockSyncSchedule: goDotEnvVariable("STOCK_SYNC_SCHEDULE"),
	}
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func goDotEnvInt64(key string) int64 {
	raw := goDotEnvVariable(key)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return value
}
