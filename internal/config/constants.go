package config

import "metaorder/pkg/contracts"

// Application constants
const (
	AppName    = "metaorder"
	AppVersion = contracts.Version

	// Environment
	EnvPrefix     = "METAORDER"
	EnvConfigFile = "METAORDER_CONFIG"

	// Processing defaults
	DefaultMethodology  = "session"
	DefaultOutputFormat = "parquet"

	// File Paths (relative to DataDir)
	DefaultDataDir      = "data"
	DefaultTradeSubdir  = "trade"
	DefaultOutputSubdir = "processed"
	DefaultExtractDir   = "extracts"
	DefaultReportsDir   = "reports"
	DefaultLogsDir      = "logs"
	DefaultArchiveName  = "ES_fut_chain.tar"

	// Side-specific output folders
	BuyerSubdir  = "buyer"
	SellerSubdir = "seller"
	DailySubdir  = "daily"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "metaorder.log"
)
