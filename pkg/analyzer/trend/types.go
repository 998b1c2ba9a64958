package trend

import (
	"time"

	"github.com/panbanda/facet/pkg/schedule"
)

// Point is the KPI snapshot at one revision of the dataset file. A revision
// whose content could not be parsed carries LoadError and zeroed stats.
type Point struct {
	SHA          string                  `json:"sha" toon:"sha"`
	Date         time.Time               `json:"date" toon:"date"`
	TotalRows    int                     `json:"total_rows" toon:"total_rows"`
	StatusCounts map[schedule.Status]int `json:"status_counts,omitempty" toon:"status_counts,omitempty"`
	AvgDelayDays float64                 `json:"avg_delay_days" toon:"avg_delay_days"`
	LoadError    string                  `json:"load_error,omitempty" toon:"load_error,omitempty"`
}

// Delta is the newest parseable point minus the oldest.
type Delta struct {
	TotalRows    int                     `json:"total_rows" toon:"total_rows"`
	AvgDelayDays float64                 `json:"avg_delay_days" toon:"avg_delay_days"`
	StatusCounts map[schedule.Status]int `json:"status_counts" toon:"status_counts"`
}

// Analysis contains the per-revision KPI history of one dataset file.
type Analysis struct {
	// File is the dataset path relative to the repository root.
	File string `json:"file" toon:"file"`

	// PeriodDays is how far back the history was walked.
	PeriodDays int `json:"period_days" toon:"period_days"`

	// Points holds one snapshot per revision, oldest first.
	Points []Point `json:"points" toon:"points"`

	// Delta compares the newest and oldest parseable points. Nil when
	// fewer than two revisions parsed.
	Delta *Delta `json:"delta,omitempty" toon:"delta,omitempty"`

	// DelaySlope is the least-squares change in average delay days per
	// calendar day across the parseable points.
	DelaySlope float64 `json:"delay_slope" toon:"delay_slope"`

	GeneratedAt time.Time `json:"generated_at" toon:"generated_at"`
}
