package kpi

import (
	"time"

	"github.com/panbanda/facet/pkg/schedule"
)

// BucketCount is one entry of the planned-bucket distribution.
type BucketCount struct {
	Bucket string `json:"bucket" toon:"bucket"`
	Count  int    `json:"count" toon:"count"`
}

// Summary is the whole-dataset KPI record consumed by display surfaces.
type Summary struct {
	TotalRows    int                     `json:"total_rows" toon:"total_rows"`
	Granularity  schedule.Granularity    `json:"granularity" toon:"granularity"`
	StatusCounts map[schedule.Status]int `json:"status_counts" toon:"status_counts"`

	// Delay statistics over rows with both dates. Positive delays only for
	// avg, max, and percentiles; AvgEarlyDays is the mean magnitude of the
	// negative delays. Empty subsets yield 0, never an error.
	AvgDelayDays float64 `json:"avg_delay_days" toon:"avg_delay_days"`
	MaxDelayDays float64 `json:"max_delay_days" toon:"max_delay_days"`
	AvgEarlyDays float64 `json:"avg_early_days" toon:"avg_early_days"`
	P50DelayDays float64 `json:"p50_delay_days" toon:"p50_delay_days"`
	P90DelayDays float64 `json:"p90_delay_days" toon:"p90_delay_days"`

	// TopBuckets is the planned-bucket distribution at the requested
	// granularity, ordered by count descending then label ascending.
	TopBuckets []BucketCount `json:"top_buckets,omitempty" toon:"top_buckets,omitempty"`

	GeneratedAt time.Time `json:"generated_at" toon:"generated_at"`
}

// Count returns the count for one status.
func (s *Summary) Count(status schedule.Status) int {
	return s.StatusCounts[status]
}
