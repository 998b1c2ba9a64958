package schedule

import (
	"fmt"

	"github.com/panbanda/facet/pkg/dataset"
)

// Columns names the date columns a dataset uses for classification.
type Columns struct {
	Planned string
	Actual  string
}

// Derived column names written by Annotate.
const (
	ColStatus       = "Status"
	ColDelayDays    = "Delay_Days"
	ColWeekStatus   = "Week_Status"
	ColMonthStatus  = "Month_Status"
	ColPlannedWeek  = "Planned_Week"
	ColPlannedMonth = "Planned_Month"
)

// StatusColumn returns the derived status column name for a granularity.
func StatusColumn(g Granularity) string {
	switch g {
	case Week:
		return ColWeekStatus
	case Month:
		return ColMonthStatus
	default:
		return ColStatus
	}
}

// Annotate derives the schedule columns on a dataset in place: day, week,
// and month statuses, the delay in days, and the planned week and month
// buckets. The planned column must exist; a missing actual column leaves
// every row Pending with no delay.
func Annotate(ds *dataset.Dataset, cols Columns, g Granularity) error {
	if !ds.HasColumn(cols.Planned) {
		return fmt.Errorf("schedule: planned column %q not found", cols.Planned)
	}

	n := ds.NumRows()
	status := make([]dataset.Value, n)
	weekStatus := make([]dataset.Value, n)
	monthStatus := make([]dataset.Value, n)
	delay := make([]dataset.Value, n)
	plannedWeek := make([]dataset.Value, n)
	plannedMonth := make([]dataset.Value, n)

	for i := 0; i < n; i++ {
		planned := ds.Value(i, cols.Planned)
		actual := ds.Value(i, cols.Actual)

		status[i] = dataset.String(string(Classify(planned, actual, g)))
		weekStatus[i] = dataset.String(string(Classify(planned, actual, Week)))
		monthStatus[i] = dataset.String(string(Classify(planned, actual, Month)))

		if d, ok := DelayDays(planned, actual); ok {
			delay[i] = dataset.Number(float64(d))
		} else {
			delay[i] = dataset.Null()
		}

		if wk, ok := BucketKey(planned, Week); ok {
			plannedWeek[i] = dataset.String(wk)
		} else {
			plannedWeek[i] = dataset.Null()
		}
		if mo, ok := BucketKey(planned, Month); ok {
			plannedMonth[i] = dataset.String(mo)
		} else {
			plannedMonth[i] = dataset.Null()
		}
	}

	for _, c := range []struct {
		name   string
		values []dataset.Value
	}{
		{ColStatus, status},
		{ColWeekStatus, weekStatus},
		{ColMonthStatus, monthStatus},
		{ColDelayDays, delay},
		{ColPlannedWeek, plannedWeek},
		{ColPlannedMonth, plannedMonth},
	} {
		if err := ds.AddColumn(c.name, c.values); err != nil {
			return err
		}
	}
	return nil
}
