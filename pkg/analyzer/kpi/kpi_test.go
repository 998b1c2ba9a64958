package kpi

import (
	"context"
	"testing"

	"github.com/panbanda/facet/pkg/dataset"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDataset(t *testing.T, columns []string, rows ...[]dataset.Value) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, ds.AppendRow(row))
	}
	return ds
}

func str(s string) dataset.Value  { return dataset.String(s) }
func num(f float64) dataset.Value { return dataset.Number(f) }

func TestSummarizeDelayStats(t *testing.T) {
	// Delays [5, -2, 0, 10, null]: avg positive 7.5, max 10, avg early 2.
	ds := buildDataset(t, []string{"Status", "Delay_Days"},
		[]dataset.Value{str("Delayed"), num(5)},
		[]dataset.Value{str("Early"), num(-2)},
		[]dataset.Value{str("On-Time"), num(0)},
		[]dataset.Value{str("Delayed"), num(10)},
		[]dataset.Value{str("Pending"), dataset.Null()},
	)

	s, err := New().Summarize(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 5, s.TotalRows)
	assert.InDelta(t, 7.5, s.AvgDelayDays, 1e-9)
	assert.Equal(t, 10.0, s.MaxDelayDays)
	assert.InDelta(t, 2.0, s.AvgEarlyDays, 1e-9)
	assert.Equal(t, 2, s.Count(schedule.StatusDelayed))
	assert.Equal(t, 1, s.Count(schedule.StatusEarly))
	assert.Equal(t, 1, s.Count(schedule.StatusOnTime))
	assert.Equal(t, 1, s.Count(schedule.StatusPending))
}

func TestSummarizeEmptyDelaysYieldZero(t *testing.T) {
	ds := buildDataset(t, []string{"Status"},
		[]dataset.Value{str("Pending")},
	)

	s, err := New().Summarize(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 0.0, s.AvgDelayDays)
	assert.Equal(t, 0.0, s.MaxDelayDays)
	assert.Equal(t, 0.0, s.AvgEarlyDays)
	assert.Equal(t, 0.0, s.P50DelayDays)
	assert.Equal(t, 0.0, s.P90DelayDays)
}

func TestSummarizeClassifiesFromDates(t *testing.T) {
	ds := buildDataset(t, []string{"Planned_OnAir_Date", "Actual_OnAir_Date"},
		[]dataset.Value{str("2024-03-11"), str("2024-03-12")}, // same ISO week
		[]dataset.Value{str("2024-03-11"), str("2024-03-19")}, // next week
		[]dataset.Value{str("2024-03-11"), dataset.Null()},
	)

	s, err := New(WithGranularity(schedule.Week)).Summarize(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Count(schedule.StatusOnTime))
	assert.Equal(t, 1, s.Count(schedule.StatusDelayed))
	assert.Equal(t, 1, s.Count(schedule.StatusPending))

	// Delay recomputed from the dates when no derived column exists.
	assert.InDelta(t, 4.5, s.AvgDelayDays, 1e-9)
	assert.Equal(t, 8.0, s.MaxDelayDays)
}

func TestSummarizeTopBuckets(t *testing.T) {
	ds := buildDataset(t, []string{"Planned_OnAir_Date"},
		[]dataset.Value{str("2024-03-11")},
		[]dataset.Value{str("2024-03-12")},
		[]dataset.Value{str("2024-03-13")},
		[]dataset.Value{str("2024-03-19")},
		[]dataset.Value{str("2024-03-20")},
		[]dataset.Value{str("2024-04-02")},
		[]dataset.Value{dataset.Null()},
	)

	s, err := New(WithGranularity(schedule.Week), WithTopBuckets(2)).
		Summarize(context.Background(), ds)
	require.NoError(t, err)

	// Rows without a planned date are excluded from the distribution.
	require.Len(t, s.TopBuckets, 2)
	assert.Equal(t, BucketCount{Bucket: "2024-W11", Count: 3}, s.TopBuckets[0])
	assert.Equal(t, BucketCount{Bucket: "2024-W12", Count: 2}, s.TopBuckets[1])
}

func TestTopBucketsTieBreakByLabel(t *testing.T) {
	got := topBuckets(map[string]int{
		"2024-02": 2,
		"2024-01": 2,
		"2024-03": 5,
	}, 5)

	assert.Equal(t, []BucketCount{
		{Bucket: "2024-03", Count: 5},
		{Bucket: "2024-01", Count: 2},
		{Bucket: "2024-02", Count: 2},
	}, got)
}

func TestSummarizeRowsSubset(t *testing.T) {
	ds := buildDataset(t, []string{"Status", "Delay_Days"},
		[]dataset.Value{str("Delayed"), num(4)},
		[]dataset.Value{str("On-Time"), num(0)},
		[]dataset.Value{str("Delayed"), num(6)},
	)

	s, err := New().SummarizeRows(context.Background(), ds, []int{0, 2})
	require.NoError(t, err)

	assert.Equal(t, 2, s.TotalRows)
	assert.Equal(t, 2, s.Count(schedule.StatusDelayed))
	assert.Equal(t, 0, s.Count(schedule.StatusOnTime))
	assert.InDelta(t, 5.0, s.AvgDelayDays, 1e-9)
}

func TestSummarizeNoScheduleInfoAllPending(t *testing.T) {
	ds := buildDataset(t, []string{"Region"},
		[]dataset.Value{str("A")},
		[]dataset.Value{str("B")},
	)

	s, err := New().Summarize(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count(schedule.StatusPending))
}

func TestSummarizeCancelledContext(t *testing.T) {
	ds := buildDataset(t, []string{"Region"}, []dataset.Value{str("A")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Summarize(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
}
