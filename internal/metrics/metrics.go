package metrics

import "expvar"

var (
	EventsSeen           = expvar.NewInt("events_seen")
	TradesDetected       = expvar.NewInt("trades_detected")
	DuplicatesSuppressed = expvar.NewInt("duplicates_suppressed")
	EventsMalformed      = expvar.NewInt("events_malformed")
	CopiesExecuted       = expvar.NewInt("copies_executed")
	CopiesFailed         = expvar.NewInt("copies_failed")
	CopiesSkipped        = expvar.NewInt("copies_skipped")
	OrderAttempts        = expvar.NewInt("order_attempts")
	DedupCacheSize       = expvar.NewInt("dedup_cache_size")
)
