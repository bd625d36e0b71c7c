package config

const (
	DefaultTimeZone = "UTC"

	// Statement import tuning.
	InsertBatchSize = 100
	SheetWorkers    = 4
	MaxUploadBytes  = 25 << 20

	// Nightly consistency audit over stored statement totals.
	DefaultAuditSchedule = "0 3 * * *"
)
