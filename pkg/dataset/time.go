package dataset

import (
	"strings"
	"time"
)

// timeLayouts are the accepted temporal forms, tried in order. Dates without
// zone information parse as UTC.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
}

// ParseTime attempts to read a timestamp from a string. Loaders use it for
// cell inference and classifiers use it to accept date-shaped strings that
// arrived through formats without native temporal types.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimeOf extracts a timestamp from a value, accepting native timestamps and
// date-shaped strings.
func TimeOf(v Value) (time.Time, bool) {
	if t, ok := v.AsTime(); ok {
		return t, true
	}
	if s, ok := v.AsString(); ok {
		return ParseTime(s)
	}
	return time.Time{}, false
}
