package cmd

// Config carries everything the composition root needs to wire the
// application: HTTP binding, database connection, marketplace API access
// and job schedules.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	MarketBaseURL    string
	MarketAPIKey     string
	MarketCampaignID int64
	MarketBusinessID int64

	PollSchedule      string
	StockSyncSchedule string
}
