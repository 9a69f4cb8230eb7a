package model

import "time"

// Shared defaults used by both the server and CLI binaries.
const (
	DefaultBaseDir    = "mnt/data/logiq/parquet/"
	DefaultViewName   = "logs"
	DefaultRowLimit   = 1000
	DefaultQuickLimit = 100
	DefaultExportName = "logiq_results.csv"
	DateLayout        = "2006-01-02"
)

var (
	DefaultStartDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	DefaultEndDate   = time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
)
