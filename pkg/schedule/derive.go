package schedule

import "github.com/panbanda/facet/pkg/dataset"

// RowStatuses resolves the per-row status at a granularity. A derived status
// column on the dataset wins; otherwise rows are classified from the planned
// and actual date columns. Returns nil when the dataset carries no schedule
// information at all.
func RowStatuses(ds *dataset.Dataset, cols Columns, g Granularity) []Status {
	if idx, ok := ds.ColumnIndex(StatusColumn(g)); ok {
		statuses := make([]Status, ds.NumRows())
		for row := range statuses {
			statuses[row] = Status(ds.ValueAt(row, idx).DisplayString())
		}
		return statuses
	}
	if !ds.HasColumn(cols.Planned) {
		return nil
	}
	statuses := make([]Status, ds.NumRows())
	for row := range statuses {
		statuses[row] = Classify(ds.Value(row, cols.Planned), ds.Value(row, cols.Actual), g)
	}
	return statuses
}

// RowDelay returns the delay in days for one row, preferring a numeric
// derived delay column over recomputing from the date columns. The second
// return is false when the row carries no usable delay.
func RowDelay(ds *dataset.Dataset, cols Columns, row int) (float64, bool) {
	if idx, ok := ds.ColumnIndex(ColDelayDays); ok {
		if n, ok := ds.ValueAt(row, idx).AsNumber(); ok {
			return n, true
		}
		// A present but empty cell means the dates were missing; fall
		// through to recompute in case only the derived column is stale.
	}
	if d, ok := DelayDays(ds.Value(row, cols.Planned), ds.Value(row, cols.Actual)); ok {
		return float64(d), true
	}
	return 0, false
}
