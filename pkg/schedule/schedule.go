// Package schedule classifies planned-versus-actual delivery dates into
// punctuality statuses and assigns rows to lexically sortable time buckets.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/panbanda/facet/pkg/dataset"
)

// Granularity selects the time bucket used for comparison and labeling.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity reads a granularity from user input.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	default:
		return "", fmt.Errorf("schedule: unknown granularity %q (want day, week, or month)", s)
	}
}

// String returns the lowercase granularity name.
func (g Granularity) String() string {
	return string(g)
}

// Status is the punctuality classification of a row.
type Status string

const (
	StatusEarly   Status = "Early"
	StatusOnTime  Status = "On-Time"
	StatusDelayed Status = "Delayed"
	StatusPending Status = "Pending"

	// StatusNoData marks aggregation groups whose partition value is
	// missing. Rows themselves never classify as NoData.
	StatusNoData Status = "No Data"
)

// statusColors are the hex colors tree renderers expect per status.
var statusColors = map[Status]string{
	StatusEarly:   "#3B82F6",
	StatusDelayed: "#EF4444",
	StatusOnTime:  "#10B981",
	StatusPending: "#6B7280",
	StatusNoData:  "#9CA3AF",
}

// defaultColor is used for the synthetic root and unrecognized statuses.
const defaultColor = "#3B82F6"

// Color returns the display color for a status.
func Color(s Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return defaultColor
}

// Classify compares a planned date against an actual date at the given
// granularity. A missing or unparseable date on either side yields Pending.
func Classify(planned, actual dataset.Value, g Granularity) Status {
	p, ok := dataset.TimeOf(planned)
	if !ok {
		return StatusPending
	}
	a, ok := dataset.TimeOf(actual)
	if !ok {
		return StatusPending
	}

	pk := BucketLabel(p, g)
	ak := BucketLabel(a, g)
	switch {
	case ak < pk:
		return StatusEarly
	case ak > pk:
		return StatusDelayed
	default:
		return StatusOnTime
	}
}

// BucketLabel formats a timestamp as its bucket label. Labels sort lexically
// in chronological order: days as 2006-01-02, weeks as 2006-W01 using the
// ISO week year, months as 2006-01.
func BucketLabel(t time.Time, g Granularity) string {
	switch g {
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Month:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// BucketKey returns the bucket label for a cell value, or false when the
// cell holds no usable date.
func BucketKey(v dataset.Value, g Granularity) (string, bool) {
	t, ok := dataset.TimeOf(v)
	if !ok {
		return "", false
	}
	return BucketLabel(t, g), true
}

// DelayDays returns the whole-day difference between actual and planned
// dates. Positive means late, negative means early. The second return is
// false when either date is missing.
func DelayDays(planned, actual dataset.Value) (int, bool) {
	p, ok := dataset.TimeOf(planned)
	if !ok {
		return 0, false
	}
	a, ok := dataset.TimeOf(actual)
	if !ok {
		return 0, false
	}
	return int(truncateDay(a).Sub(truncateDay(p)).Hours() / 24), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
