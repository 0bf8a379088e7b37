// Package metrics provides constants used across metric definitions.
package metrics

// Label value constants used for metric labels.
const (
	// LabelSuccess is the status label for successful operations.
	LabelSuccess = "success"
	// LabelError is the status label for failed operations.
	LabelError = "error"
	// LabelHit is the cache result label for fresh entries.
	LabelHit = "hit"
	// LabelMiss is the cache result label for absent entries.
	LabelMiss = "miss"
	// LabelStale is the cache result label for expired entries.
	LabelStale = "stale"
	// LabelForward is the geocoding kind label for name lookups.
	LabelForward = "forward"
	// LabelReverse is the geocoding kind label for coordinate lookups.
	LabelReverse = "reverse"
	// LabelSuggest is the geocoding kind label for suggestion lookups.
	LabelSuggest = "suggest"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart64B is the starting bucket for 64 byte histograms.
	BucketStart64B = 64.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
)
