package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc receives progress updates during a long analysis. current
// and total count processed items; item names what just finished (a file,
// a revision hash).
type ProgressFunc func(current, total int, item string)

// Tracker counts completed work items and relays each completion to a
// callback. Safe for concurrent use.
type Tracker struct {
	total    atomic.Int32
	current  atomic.Int32
	callback ProgressFunc
}

// NewTracker returns a tracker that invokes callback on every Tick.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add grows the expected total by n, for work discovered incrementally.
func (t *Tracker) Add(n int) {
	t.total.Add(int32(n))
}

// SetTotal replaces the expected total outright.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int32(n))
}

// Tick records one completed item and notifies the callback.
func (t *Tracker) Tick(item string) {
	current := int(t.current.Add(1))
	if t.callback != nil {
		t.callback(current, int(t.total.Load()), item)
	}
}

// Current reports how many items have completed so far.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total reports the expected item count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker attaches a tracker to the context so analyzers deep in the
// call stack can report progress without threading it explicitly.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the attached tracker, or nil when the caller
// did not ask for progress.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
