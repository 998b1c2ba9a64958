package decomp

import (
	"context"
	"testing"

	"github.com/panbanda/facet/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortableTree(t *testing.T, opts ...Option) *Tree {
	t.Helper()
	ds := buildDataset(t, []string{"Region"},
		[]dataset.Value{str("Mid")},
		[]dataset.Value{str("Alpha")},
		[]dataset.Value{str("Alpha")},
		[]dataset.Value{str("Alpha")},
		[]dataset.Value{str("Zeta")},
		[]dataset.Value{str("Zeta")},
	)
	tree, err := New(append([]Option{WithHierarchy([]string{"Region"})}, opts...)...).
		BuildTree(context.Background(), ds)
	require.NoError(t, err)
	return tree
}

func childValues(root *Node) []string {
	out := make([]string, len(root.Children))
	for i, n := range root.Children {
		out[i] = n.NodeValue
	}
	return out
}

func TestSortTree(t *testing.T) {
	tests := []struct {
		name string
		mode SortMode
		want []string
	}{
		{"value ascending", SortMode{Key: SortKeyValue}, []string{"Mid", "Zeta", "Alpha"}},
		{"value descending", SortMode{Key: SortKeyValue, Descending: true}, []string{"Alpha", "Zeta", "Mid"}},
		{"name ascending", SortMode{Key: SortKeyName}, []string{"Alpha", "Mid", "Zeta"}},
		{"name descending", SortMode{Key: SortKeyName, Descending: true}, []string{"Zeta", "Mid", "Alpha"}},
		{"none keeps encounter order", SortMode{Key: SortKeyNone}, []string{"Mid", "Alpha", "Zeta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := sortableTree(t, WithSort(tt.mode))
			assert.Equal(t, tt.want, childValues(tree.Root))
		})
	}
}

func TestSortByNameUsesBucketPrefix(t *testing.T) {
	// Week labels carry a sortable bucket before human-readable text.
	nodes := []*Node{
		{NodeValue: "2024-W10 (Mar 04)"},
		{NodeValue: "2024-W02 (Jan 08)"},
		{NodeValue: "2023-W52 (Dec 25)"},
	}
	sortSiblings(nodes, SortMode{Key: SortKeyName})

	assert.Equal(t, "2023-W52 (Dec 25)", nodes[0].NodeValue)
	assert.Equal(t, "2024-W02 (Jan 08)", nodes[1].NodeValue)
	assert.Equal(t, "2024-W10 (Mar 04)", nodes[2].NodeValue)
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		input   string
		desc    bool
		want    SortMode
		wantErr bool
	}{
		{"", false, SortMode{Key: SortKeyNone}, false},
		{"none", true, SortMode{Key: SortKeyNone}, false},
		{"value", true, SortMode{Key: SortKeyValue, Descending: true}, false},
		{"percentage", false, SortMode{Key: SortKeyPercentage}, false},
		{"pct", false, SortMode{Key: SortKeyPercentage}, false},
		{"Name", false, SortMode{Key: SortKeyName}, false},
		{"size", false, SortMode{}, true},
	}

	for _, tt := range tests {
		got, err := ParseSortMode(tt.input, tt.desc)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSortMode(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSortMode(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortMode(%q, %v) = %+v, want %+v", tt.input, tt.desc, got, tt.want)
		}
	}
}
