package decomp

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey selects the sibling ordering criterion. Ordering is a presentation
// concern: the engine's native order is first encounter, and tests must not
// assume anything else unless a sort is applied.
type SortKey string

const (
	SortKeyNone       SortKey = "none"
	SortKeyValue      SortKey = "value"
	SortKeyPercentage SortKey = "percentage"
	SortKeyName       SortKey = "name"
)

// SortMode pairs a key with a direction.
type SortMode struct {
	Key        SortKey
	Descending bool
}

// ParseSortMode reads a sort mode from CLI input, e.g. "value" or "name".
func ParseSortMode(s string, descending bool) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortMode{Key: SortKeyNone}, nil
	case "value":
		return SortMode{Key: SortKeyValue, Descending: descending}, nil
	case "percentage", "pct":
		return SortMode{Key: SortKeyPercentage, Descending: descending}, nil
	case "name":
		return SortMode{Key: SortKeyName, Descending: descending}, nil
	default:
		return SortMode{}, fmt.Errorf("decomp: unknown sort mode %q (want value, percentage, or name)", s)
	}
}

// SortTree orders every sibling list in place. Name ordering compares the
// bucket prefix of the node value (the first space-separated token) so week
// and month labels order chronologically.
func SortTree(root *Node, mode SortMode) {
	if root == nil || mode.Key == SortKeyNone {
		return
	}
	root.Walk(func(n *Node) {
		sortSiblings(n.Children, mode)
	})
}

func sortSiblings(nodes []*Node, mode SortMode) {
	if len(nodes) < 2 {
		return
	}
	less := func(i, j int) bool {
		switch mode.Key {
		case SortKeyValue:
			return nodes[i].Value < nodes[j].Value
		case SortKeyPercentage:
			if nodes[i].Percentage != nodes[j].Percentage {
				return nodes[i].Percentage < nodes[j].Percentage
			}
			return nodes[i].Value < nodes[j].Value
		default:
			return bucketPrefix(nodes[i].NodeValue) < bucketPrefix(nodes[j].NodeValue)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if mode.Descending {
			return less(j, i)
		}
		return less(i, j)
	})
}

// bucketPrefix extracts the sortable key from a label: week and month labels
// carry the lexically ordered bucket first, then human-readable text.
func bucketPrefix(label string) string {
	if i := strings.IndexByte(label, ' '); i > 0 {
		return label[:i]
	}
	return label
}
