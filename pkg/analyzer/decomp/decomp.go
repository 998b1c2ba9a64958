// Package decomp builds collapsible decomposition trees from tabular
// datasets: each hierarchy column becomes a nesting level, each distinct
// value a node, and each node aggregates the rows sharing its value path.
package decomp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/facet/pkg/dataset"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/sourcegraph/conc/pool"
)

// DefaultTooltipColumns are always included in node tooltips when present in
// the dataset, on top of any explicitly requested columns.
var DefaultTooltipColumns = []string{
	"Status",
	"Delay_Days",
	"PIC",
	"Delay_Reason",
	"Planned_OnAir_Date",
	"Actual_OnAir_Date",
}

// Analyzer builds decomposition trees. Configure with options, then call
// BuildTree. An Analyzer is safe for concurrent use; each build reads its
// input and writes only to freshly allocated nodes.
type Analyzer struct {
	hierarchy     []string
	rule          ValueRule
	tooltipCols   []string
	alwaysTooltip []string
	granularity   schedule.Granularity
	scheduleCols  schedule.Columns
	sortMode      SortMode
	maxDepth      int
	workers       int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithHierarchy sets the ordered grouping columns. Required.
func WithHierarchy(columns []string) Option {
	return func(a *Analyzer) {
		a.hierarchy = columns
	}
}

// WithValueRule sets the aggregation rule. Defaults to row count.
func WithValueRule(rule ValueRule) Option {
	return func(a *Analyzer) {
		a.rule = rule
	}
}

// WithTooltipColumns sets explicitly requested tooltip columns.
func WithTooltipColumns(columns []string) Option {
	return func(a *Analyzer) {
		a.tooltipCols = columns
	}
}

// WithAlwaysTooltipColumns replaces the default always-include tooltip set.
func WithAlwaysTooltipColumns(columns []string) Option {
	return func(a *Analyzer) {
		a.alwaysTooltip = columns
	}
}

// WithGranularity sets the status comparison granularity. Defaults to day.
func WithGranularity(g schedule.Granularity) Option {
	return func(a *Analyzer) {
		a.granularity = g
	}
}

// WithScheduleColumns sets the planned and actual date columns used to
// classify rows when the dataset carries no derived status column.
func WithScheduleColumns(cols schedule.Columns) Option {
	return func(a *Analyzer) {
		a.scheduleCols = cols
	}
}

// WithSort sets the sibling ordering applied after the build. Defaults to
// first-encounter order.
func WithSort(mode SortMode) Option {
	return func(a *Analyzer) {
		a.sortMode = mode
	}
}

// WithMaxDepth clips the hierarchy to at most n levels (0 = no limit).
func WithMaxDepth(n int) Option {
	return func(a *Analyzer) {
		a.maxDepth = n
	}
}

// WithWorkers sets the worker count for concurrent depth-0 subtree builds.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// New creates a decomposition analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		rule:          CountRule(),
		granularity:   schedule.Day,
		alwaysTooltip: DefaultTooltipColumns,
		scheduleCols: schedule.Columns{
			Planned: "Planned_OnAir_Date",
			Actual:  "Actual_OnAir_Date",
		},
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = 1
	}
	return a
}

// BuildTree builds the decomposition tree over every row of the dataset.
func (a *Analyzer) BuildTree(ctx context.Context, ds *dataset.Dataset) (*Tree, error) {
	rows := make([]int, ds.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return a.BuildTreeRows(ctx, ds, rows)
}

// BuildTreeRows builds the tree over a row-index subset, typically produced
// by filters. The subset defines both the partition input and the percentage
// denominator.
func (a *Analyzer) BuildTreeRows(ctx context.Context, ds *dataset.Dataset, rows []int) (*Tree, error) {
	hierarchy := a.hierarchy
	if a.maxDepth > 0 && len(hierarchy) > a.maxDepth {
		hierarchy = hierarchy[:a.maxDepth]
	}
	if err := a.validate(ds, hierarchy); err != nil {
		return nil, err
	}

	b := &builder{
		analyzer:  a,
		ds:        ds,
		hierarchy: hierarchy,
		statuses:  schedule.RowStatuses(ds, a.scheduleCols, a.granularity),
		tooltip:   a.tooltipColumns(ds),
	}
	b.total = b.aggregate(rows)

	tree := &Tree{
		Hierarchy:   append([]string(nil), hierarchy...),
		ValueRule:   a.rule,
		Granularity: a.granularity,
		Total:       b.total,
		RowCount:    len(rows),
		GeneratedAt: time.Now().UTC(),
	}

	roots, err := b.buildLevel(ctx, rows, 0)
	if err != nil {
		return nil, err
	}
	tree.Root = assembleRoot(roots, b.total, len(rows))

	if a.sortMode.Key != SortKeyNone {
		SortTree(tree.Root, a.sortMode)
	}
	tree.CalculateSummary()
	return tree, nil
}

// validate rejects invalid configurations before any aggregation work.
func (a *Analyzer) validate(ds *dataset.Dataset, hierarchy []string) error {
	if len(hierarchy) == 0 {
		return fmt.Errorf("decomp: hierarchy is empty, select at least one grouping column")
	}
	for _, col := range hierarchy {
		if !ds.HasColumn(col) {
			return fmt.Errorf("decomp: hierarchy column %q not found in dataset (columns: %s)",
				col, strings.Join(ds.Columns(), ", "))
		}
	}
	if a.rule.Method == MethodSum || a.rule.Method == MethodAverage {
		if !ds.HasColumn(a.rule.Column) {
			return fmt.Errorf("decomp: aggregation column %q not found in dataset", a.rule.Column)
		}
		if ds.NumRows() > 0 && !hasNumericCell(ds, a.rule.Column) {
			return fmt.Errorf("decomp: aggregation column %q holds no numeric values", a.rule.Column)
		}
	}
	return nil
}

func hasNumericCell(ds *dataset.Dataset, column string) bool {
	idx, _ := ds.ColumnIndex(column)
	for row := 0; row < ds.NumRows(); row++ {
		if _, ok := ds.ValueAt(row, idx).AsNumber(); ok {
			return true
		}
	}
	return false
}

// tooltipColumns resolves the effective tooltip set: requested columns, the
// always-include set, and the active granularity's status column, in that
// order, deduplicated and filtered to columns the dataset has.
func (a *Analyzer) tooltipColumns(ds *dataset.Dataset) []string {
	candidates := make([]string, 0, len(a.tooltipCols)+len(a.alwaysTooltip)+1)
	candidates = append(candidates, a.tooltipCols...)
	candidates = append(candidates, a.alwaysTooltip...)
	candidates = append(candidates, schedule.StatusColumn(a.granularity))

	seen := make(map[string]struct{}, len(candidates))
	var cols []string
	for _, c := range candidates {
		if _, dup := seen[c]; dup || !ds.HasColumn(c) {
			continue
		}
		seen[c] = struct{}{}
		cols = append(cols, c)
	}
	return cols
}

// builder carries per-invocation state so concurrent builds never share
// mutable accumulators.
type builder struct {
	analyzer  *Analyzer
	ds        *dataset.Dataset
	hierarchy []string
	statuses  []schedule.Status
	tooltip   []string
	total     float64
}

// aggregate computes the value-rule total over a row subset.
func (b *builder) aggregate(rows []int) float64 {
	if b.analyzer.rule.Method == MethodCount || b.analyzer.rule.Method == "" {
		return float64(len(rows))
	}
	idx, _ := b.ds.ColumnIndex(b.analyzer.rule.Column)
	var sum float64
	for _, row := range rows {
		sum += b.ds.ValueAt(row, idx).Coerce()
	}
	return sum
}

// group is one partition cell: a distinct column value and its member rows.
type group struct {
	display string
	rows    []int
}

// partition splits rows by the distinct values of one column, preserving
// first-encounter order. Missing values collapse into a single No Data
// group. Numeric cells key on their canonical rendering so 1 and 1.0 land
// in the same group.
func (b *builder) partition(rows []int, column string) []group {
	idx, _ := b.ds.ColumnIndex(column)
	byKey := make(map[string]int, 16)
	var groups []group

	for _, row := range rows {
		v := b.ds.ValueAt(row, idx)
		key := v.DisplayString()
		if v.IsNull() || key == "" {
			key = NoDataLabel
		}
		gi, ok := byKey[key]
		if !ok {
			gi = len(groups)
			byKey[key] = gi
			groups = append(groups, group{display: key})
		}
		groups[gi].rows = append(groups[gi].rows, row)
	}
	return groups
}

// buildLevel partitions rows by the hierarchy column at depth and builds one
// node per group. Depth 0 fans out across the worker pool; deeper levels
// build serially inside their goroutine.
func (b *builder) buildLevel(ctx context.Context, rows []int, depth int) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	groups := b.partition(rows, b.hierarchy[depth])
	nodes := make([]*Node, len(groups))

	if depth == 0 && b.analyzer.workers > 1 && len(groups) > 1 {
		p := pool.New().WithMaxGoroutines(b.analyzer.workers).WithContext(ctx)
		for i, g := range groups {
			p.Go(func(ctx context.Context) error {
				node, err := b.buildNode(ctx, g, depth)
				if err != nil {
					return err
				}
				nodes[i] = node
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, err
		}
		return nodes, nil
	}

	for i, g := range groups {
		node, err := b.buildNode(ctx, g, depth)
		if err != nil {
			return nil, err
		}
		nodes[i] = node
	}
	return nodes, nil
}

// buildNode materializes one aggregate node and, below the deepest level,
// its children. The node owns its member rows exclusively.
func (b *builder) buildNode(ctx context.Context, g group, depth int) (*Node, error) {
	column := b.hierarchy[depth]
	node := &Node{
		Name:          column + ": " + g.display,
		Level:         depth,
		Column:        column,
		NodeValue:     g.display,
		Value:         b.aggregate(g.rows),
		Count:         len(g.rows),
		StatusSummary: b.statusMode(g.rows),
		TooltipData:   b.tooltipData(g.rows),
	}
	node.Percentage = roundPercentage(node.Value, b.total)
	if g.display == NoDataLabel && node.StatusSummary == "" {
		node.Color = schedule.Color(schedule.StatusNoData)
	} else {
		node.Color = schedule.Color(node.StatusSummary)
	}

	if depth+1 < len(b.hierarchy) {
		children, err := b.buildLevel(ctx, g.rows, depth+1)
		if err != nil {
			return nil, err
		}
		node.Children = children
	} else {
		node.RowIndexes = append([]int(nil), g.rows...)
		sort.Ints(node.RowIndexes)
	}
	return node, nil
}

// statusMode returns the most frequent status among the rows, ties broken by
// the status first encountered in row order.
func (b *builder) statusMode(rows []int) schedule.Status {
	if b.statuses == nil {
		return ""
	}
	counts := make(map[schedule.Status]int, 4)
	var order []schedule.Status
	for _, row := range rows {
		s := b.statuses[row]
		if s == "" {
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	var mode schedule.Status
	best := 0
	for _, s := range order {
		if counts[s] > best {
			best = counts[s]
			mode = s
		}
	}
	return mode
}

// tooltipData summarizes each tooltip column over the rows: distinct display
// strings, excluding empties and the literal "nan", sorted and joined.
func (b *builder) tooltipData(rows []int) map[string]string {
	if len(b.tooltip) == 0 {
		return nil
	}
	data := make(map[string]string, len(b.tooltip))
	for _, col := range b.tooltip {
		idx, _ := b.ds.ColumnIndex(col)
		distinct := make(map[string]struct{})
		for _, row := range rows {
			s := b.ds.ValueAt(row, idx).DisplayString()
			if s == "" || s == "nan" {
				continue
			}
			distinct[s] = struct{}{}
		}
		if len(distinct) == 0 {
			continue
		}
		values := make([]string, 0, len(distinct))
		for s := range distinct {
			values = append(values, s)
		}
		sort.Strings(values)
		data[col] = strings.Join(values, ", ")
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// assembleRoot wraps multiple depth-0 nodes under a synthetic root, promotes
// a single node to root directly, and falls back to an empty No Data node
// when nothing was built.
func assembleRoot(roots []*Node, total float64, rowCount int) *Node {
	switch len(roots) {
	case 0:
		return &Node{
			Name:  NoDataLabel,
			Level: 0,
			Color: schedule.Color(schedule.StatusNoData),
		}
	case 1:
		return roots[0]
	default:
		var sum float64
		for _, n := range roots {
			sum += n.Value
		}
		root := &Node{
			Name:     "Root",
			Level:    -1,
			Value:    sum,
			Count:    rowCount,
			Color:    schedule.Color(""),
			Children: roots,
		}
		root.Percentage = roundPercentage(sum, total)
		return root
	}
}

// roundPercentage rounds half away from zero; a zero total yields 0.
func roundPercentage(value, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(value / total * 100))
}

// EncodeTree writes the tree as indented JSON. Trees built from loaded
// datasets always serialize because node payloads are closed types.
func EncodeTree(w io.Writer, t *Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("decomp: encoding tree: %w", err)
	}
	return nil
}
