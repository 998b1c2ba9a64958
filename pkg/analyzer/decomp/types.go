package decomp

import (
	"fmt"
	"strings"
	"time"

	"github.com/panbanda/facet/pkg/schedule"
)

// Method selects how member rows aggregate into a node value.
type Method string

const (
	MethodCount   Method = "count"
	MethodSum     Method = "sum"
	MethodAverage Method = "avg"
)

// ValueRule pairs an aggregation method with its target column. Count needs
// no column. Average carries the summed value on every node alongside the
// row count so consumers divide at any level without re-reading rows.
type ValueRule struct {
	Method Method `json:"method" toon:"method"`
	Column string `json:"column,omitempty" toon:"column,omitempty"`
}

// CountRule returns the row-count value rule.
func CountRule() ValueRule {
	return ValueRule{Method: MethodCount}
}

// SumRule returns a sum rule over the named numeric column.
func SumRule(column string) ValueRule {
	return ValueRule{Method: MethodSum, Column: column}
}

// AverageRule returns an average rule over the named numeric column.
func AverageRule(column string) ValueRule {
	return ValueRule{Method: MethodAverage, Column: column}
}

// ParseValueRule reads a rule from CLI syntax: "count", "sum:Col", "avg:Col".
func ParseValueRule(s string) (ValueRule, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "count") {
		return CountRule(), nil
	}
	method, column, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(column) == "" {
		return ValueRule{}, fmt.Errorf("decomp: invalid value rule %q (want count, sum:Column, or avg:Column)", s)
	}
	column = strings.TrimSpace(column)
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "sum":
		return SumRule(column), nil
	case "avg", "average", "mean":
		return AverageRule(column), nil
	default:
		return ValueRule{}, fmt.Errorf("decomp: unknown aggregation method %q (want sum or avg)", method)
	}
}

// String renders the rule in CLI syntax.
func (r ValueRule) String() string {
	if r.Method == MethodCount || r.Method == "" {
		return "count"
	}
	return string(r.Method) + ":" + r.Column
}

// NoDataLabel is the sentinel group for rows whose partition value is
// missing, and the name of the fallback node for empty datasets.
const NoDataLabel = "No Data"

// Node is one tree node: a distinct value of one hierarchy column within the
// partition induced by its ancestors.
type Node struct {
	// Name is "Column: Value", or the raw label for synthetic nodes.
	Name string `json:"name" toon:"name"`
	// Level is the 0-based hierarchy depth; -1 for the synthetic root.
	Level int `json:"level" toon:"level"`
	// Column is the hierarchy column partitioned at this level.
	Column string `json:"column,omitempty" toon:"column,omitempty"`
	// NodeValue is the partition key this node represents.
	NodeValue string `json:"node_value,omitempty" toon:"node_value,omitempty"`
	// Value is the aggregate under the tree's value rule.
	Value float64 `json:"value" toon:"value"`
	// Count is the number of member rows, carried on every node so average
	// display is Value / Count at any level.
	Count int `json:"count" toon:"count"`
	// Percentage is Value over the whole-tree total, rounded to the nearest
	// integer. The denominator never shrinks per subtree.
	Percentage int `json:"percentage" toon:"percentage"`
	// StatusSummary is the modal schedule status of the member rows, ties
	// broken by first encounter in row order.
	StatusSummary schedule.Status `json:"status_summary,omitempty" toon:"status_summary,omitempty"`
	// Color is the display color derived from StatusSummary.
	Color string `json:"color" toon:"color"`
	// TooltipData maps tooltip columns to their deduplicated, sorted,
	// comma-joined distinct values across member rows.
	TooltipData map[string]string `json:"tooltip_data,omitempty" toon:"tooltip_data,omitempty"`
	// RowIndexes identifies the member rows on leaf nodes so callers can
	// recover raw rows without the tree owning copies.
	RowIndexes []int `json:"row_indexes,omitempty" toon:"row_indexes,omitempty"`
	// Children are the next level's nodes; absent on leaves.
	Children []*Node `json:"children,omitempty" toon:"children,omitempty"`
}

// Walk visits the node and every descendant in depth-first order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Tree is the materialized decomposition of one dataset.
type Tree struct {
	Root        *Node                `json:"root" toon:"root"`
	Hierarchy   []string             `json:"hierarchy" toon:"hierarchy"`
	ValueRule   ValueRule            `json:"value_rule" toon:"value_rule"`
	Granularity schedule.Granularity `json:"granularity" toon:"granularity"`
	// Total is the whole-dataset aggregate used as the percentage
	// denominator for every node.
	Total       float64   `json:"total" toon:"total"`
	RowCount    int       `json:"row_count" toon:"row_count"`
	GeneratedAt time.Time `json:"generated_at" toon:"generated_at"`
	Summary     Summary   `json:"summary" toon:"summary"`
}

// Summary aggregates tree-level statistics.
type Summary struct {
	NodeCount  int                     `json:"node_count" toon:"node_count"`
	LeafCount  int                     `json:"leaf_count" toon:"leaf_count"`
	MaxDepth   int                     `json:"max_depth" toon:"max_depth"`
	ByStatus   map[schedule.Status]int `json:"by_status,omitempty" toon:"by_status,omitempty"`
	TopNode    string                  `json:"top_node,omitempty" toon:"top_node,omitempty"`
	TopNodePct int                     `json:"top_node_percentage,omitempty" toon:"top_node_percentage,omitempty"`
}

// CalculateSummary recomputes the tree summary from the node structure.
func (t *Tree) CalculateSummary() {
	s := Summary{ByStatus: make(map[schedule.Status]int)}
	if t.Root == nil {
		t.Summary = s
		return
	}

	var top *Node
	t.Root.Walk(func(n *Node) {
		s.NodeCount++
		if len(n.Children) == 0 {
			s.LeafCount++
			if n.StatusSummary != "" {
				s.ByStatus[n.StatusSummary]++
			}
		}
		if n.Level+1 > s.MaxDepth {
			s.MaxDepth = n.Level + 1
		}
		if n.Level == 0 && (top == nil || n.Value > top.Value) {
			top = n
		}
	})
	if top != nil {
		s.TopNode = top.Name
		s.TopNodePct = top.Percentage
	}
	if len(s.ByStatus) == 0 {
		s.ByStatus = nil
	}
	t.Summary = s
}
