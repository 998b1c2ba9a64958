// Package trend walks the git history of a tracked dataset file and reports
// how its delivery KPIs moved over time.
package trend

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/panbanda/facet/internal/vcs"
	"github.com/panbanda/facet/pkg/analyzer"
	"github.com/panbanda/facet/pkg/analyzer/kpi"
	"github.com/panbanda/facet/pkg/loader"
	"github.com/panbanda/facet/pkg/schedule"
	"gonum.org/v1/gonum/stat"
)

// DefaultDays is the default history window.
const DefaultDays = 90

// Analyzer computes per-revision KPI trends.
type Analyzer struct {
	days         int
	granularity  schedule.Granularity
	scheduleCols schedule.Columns
	opener       vcs.Opener
}

// Compile-time check that Analyzer implements HistoryAnalyzer.
var _ analyzer.HistoryAnalyzer[*Analysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithDays sets how far back to walk the history.
func WithDays(days int) Option {
	return func(a *Analyzer) {
		if days > 0 {
			a.days = days
		}
	}
}

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

// WithOpener sets the VCS opener (useful for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(a *Analyzer) {
		a.opener = opener
	}
}

// New creates a trend analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		days:        DefaultDays,
		granularity: schedule.Day,
		scheduleCols: schedule.Columns{
			Planned: "Planned_OnAir_Date",
			Actual:  "Actual_OnAir_Date",
		},
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type revision struct {
	sha    string
	when   time.Time
	commit vcs.Commit
}

// Analyze loads the dataset file at each revision within the window and
// summarizes it. Revisions that fail to parse become points carrying a load
// error instead of aborting the walk.
func (a *Analyzer) Analyze(ctx context.Context, repoPath, file string) (*Analysis, error) {
	repo, err := a.opener.PlainOpenWithDetect(repoPath)
	if err != nil {
		return nil, fmt.Errorf("trend: opening repository: %w", err)
	}

	rel := file
	if filepath.IsAbs(file) {
		rel, err = filepath.Rel(repo.RepoPath(), file)
		if err != nil {
			return nil, fmt.Errorf("trend: %s is outside the repository: %w", file, err)
		}
	}
	rel = filepath.ToSlash(rel)

	revs, err := a.fileRevisions(ctx, repo, rel)
	if err != nil {
		return nil, err
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(revs))
	}

	summarizer := kpi.New(
		kpi.WithGranularity(a.granularity),
		kpi.WithScheduleColumns(a.scheduleCols),
	)

	points := make([]Point, 0, len(revs))
	for _, rev := range revs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		point := Point{SHA: rev.sha, Date: rev.when}
		if summary, loadErr := a.summarizeRevision(ctx, summarizer, rev.commit, rel); loadErr != nil {
			point.LoadError = loadErr.Error()
		} else {
			point.TotalRows = summary.TotalRows
			point.StatusCounts = summary.StatusCounts
			point.AvgDelayDays = summary.AvgDelayDays
		}
		points = append(points, point)

		if tracker != nil {
			tracker.Tick(rev.sha)
		}
	}

	return &Analysis{
		File:        rel,
		PeriodDays:  a.days,
		Points:      points,
		Delta:       computeDelta(points),
		DelaySlope:  delaySlope(points),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}

// fileRevisions collects the commits touching rel within the window,
// oldest first.
func (a *Analyzer) fileRevisions(ctx context.Context, repo vcs.Repository, rel string) ([]revision, error) {
	since := time.Now().AddDate(0, 0, -a.days)
	iter, err := repo.Log(&vcs.LogOptions{Since: &since, Path: rel})
	if err != nil {
		return nil, fmt.Errorf("trend: reading log: %w", err)
	}
	defer iter.Close()

	var revs []revision
	err = iter.ForEach(func(c vcs.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		revs = append(revs, revision{
			sha:    c.Hash().String(),
			when:   c.Author().When,
			commit: c,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("trend: walking log: %w", err)
	}

	sort.Slice(revs, func(i, j int) bool {
		return revs[i].when.Before(revs[j].when)
	})
	return revs, nil
}

// summarizeRevision reads the blob at one revision and reduces it. The
// returned error is a per-point load error, not a walk failure.
func (a *Analyzer) summarizeRevision(ctx context.Context, summarizer *kpi.Analyzer, commit vcs.Commit, rel string) (*kpi.Summary, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	content, err := tree.File(rel)
	if err != nil {
		return nil, err
	}
	ds, err := loader.FromBytes(rel, content)
	if err != nil {
		return nil, err
	}
	return summarizer.Summarize(ctx, ds)
}

// computeDelta compares the newest and oldest parseable points.
func computeDelta(points []Point) *Delta {
	var first, last *Point
	for i := range points {
		if points[i].LoadError != "" {
			continue
		}
		if first == nil {
			first = &points[i]
		}
		last = &points[i]
	}
	if first == nil || first == last {
		return nil
	}

	delta := &Delta{
		TotalRows:    last.TotalRows - first.TotalRows,
		AvgDelayDays: last.AvgDelayDays - first.AvgDelayDays,
		StatusCounts: make(map[schedule.Status]int),
	}
	for _, status := range []schedule.Status{
		schedule.StatusEarly,
		schedule.StatusOnTime,
		schedule.StatusDelayed,
		schedule.StatusPending,
	} {
		delta.StatusCounts[status] = last.StatusCounts[status] - first.StatusCounts[status]
	}
	return delta
}

// delaySlope fits average delay against calendar days across the parseable
// points. Returns 0 when the fit is undefined.
func delaySlope(points []Point) float64 {
	var xs, ys []float64
	var origin time.Time
	for _, p := range points {
		if p.LoadError != "" {
			continue
		}
		if origin.IsZero() {
			origin = p.Date
		}
		xs = append(xs, p.Date.Sub(origin).Hours()/24)
		ys = append(ys, p.AvgDelayDays)
	}
	if len(xs) < 2 {
		return 0
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0
	}
	return slope
}
