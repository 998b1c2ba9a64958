// Package kpi reduces a classified dataset to headline delivery statistics:
// status counts, delay averages and percentiles, and the busiest planned
// time buckets.
package kpi

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/panbanda/facet/pkg/dataset"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/panbanda/facet/pkg/stats"
	"gonum.org/v1/gonum/stat"
)

// DefaultTopBuckets is the default size of the planned-bucket distribution.
const DefaultTopBuckets = 5

// Analyzer computes KPI summaries.
type Analyzer struct {
	granularity  schedule.Granularity
	scheduleCols schedule.Columns
	topBuckets   int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithGranularity sets the status comparison granularity. Defaults to day.
func WithGranularity(g schedule.Granularity) Option {
	return func(a *Analyzer) {
		a.granularity = g
	}
}

// WithScheduleColumns sets the planned and actual date columns.
func WithScheduleColumns(cols schedule.Columns) Option {
	return func(a *Analyzer) {
		a.scheduleCols = cols
	}
}

// WithTopBuckets sets how many planned buckets the distribution keeps.
func WithTopBuckets(n int) Option {
	return func(a *Analyzer) {
		a.topBuckets = n
	}
}

// New creates a KPI analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		granularity: schedule.Day,
		scheduleCols: schedule.Columns{
			Planned: "Planned_OnAir_Date",
			Actual:  "Actual_OnAir_Date",
		},
		topBuckets: DefaultTopBuckets,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.topBuckets < 1 {
		a.topBuckets = DefaultTopBuckets
	}
	return a
}

// Summarize reduces every row of the dataset.
func (a *Analyzer) Summarize(ctx context.Context, ds *dataset.Dataset) (*Summary, error) {
	rows := make([]int, ds.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return a.SummarizeRows(ctx, ds, rows)
}

// SummarizeRows reduces a row-index subset, typically produced by filters.
func (a *Analyzer) SummarizeRows(ctx context.Context, ds *dataset.Dataset, rows []int) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalRows:   len(rows),
		Granularity: a.granularity,
		StatusCounts: map[schedule.Status]int{
			schedule.StatusEarly:   0,
			schedule.StatusOnTime:  0,
			schedule.StatusDelayed: 0,
			schedule.StatusPending: 0,
		},
		GeneratedAt: time.Now().UTC(),
	}

	statuses := schedule.RowStatuses(ds, a.scheduleCols, a.granularity)
	var late, early []float64
	bucketCounts := make(map[string]int)

	for _, row := range rows {
		if statuses != nil {
			summary.StatusCounts[statuses[row]]++
		} else {
			summary.StatusCounts[schedule.StatusPending]++
		}

		if d, ok := schedule.RowDelay(ds, a.scheduleCols, row); ok {
			switch {
			case d > 0:
				late = append(late, d)
			case d < 0:
				early = append(early, -d)
			}
		}

		if bucket, ok := schedule.BucketKey(ds.Value(row, a.scheduleCols.Planned), a.granularity); ok {
			bucketCounts[bucket]++
		}
	}

	if len(late) > 0 {
		summary.AvgDelayDays = stat.Mean(late, nil)
		sort.Float64s(late)
		summary.MaxDelayDays = late[len(late)-1]
		summary.P50DelayDays = stats.Percentile(late, 50)
		summary.P90DelayDays = stats.Percentile(late, 90)
	}
	if len(early) > 0 {
		summary.AvgEarlyDays = math.Abs(stat.Mean(early, nil))
	}
	summary.TopBuckets = topBuckets(bucketCounts, a.topBuckets)

	return summary, nil
}

// topBuckets keeps the n busiest buckets, ordered by count descending with
// label ascending as the tie-break.
func topBuckets(counts map[string]int, n int) []BucketCount {
	if len(counts) == 0 {
		return nil
	}
	buckets := make([]BucketCount, 0, len(counts))
	for label, count := range counts {
		buckets = append(buckets, BucketCount{Bucket: label, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Bucket < buckets[j].Bucket
	})
	if len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}
