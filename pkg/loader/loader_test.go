package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/facet/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFromCSV(t *testing.T) {
	input := `Site_ID,Region,Planned_OnAir_Date,Delay_Days,Live
S-001,North,2024-03-15,5,true
S-002,South,2024-03-18,,false
S-003,,2024-04-01,-2,true
`
	ds, err := FromCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Site_ID", "Region", "Planned_OnAir_Date", "Delay_Days", "Live"}, ds.Columns())
	assert.Equal(t, 3, ds.NumRows())

	// Date cells infer as timestamps.
	tm, ok := ds.Value(0, "Planned_OnAir_Date").AsTime()
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", tm.Format("2006-01-02"))

	// Numeric cells infer as numbers, including negatives.
	n, ok := ds.Value(0, "Delay_Days").AsNumber()
	require.True(t, ok)
	assert.Equal(t, 5.0, n)
	n, ok = ds.Value(2, "Delay_Days").AsNumber()
	require.True(t, ok)
	assert.Equal(t, -2.0, n)

	// Empty cells are null.
	assert.True(t, ds.Value(1, "Delay_Days").IsNull())
	assert.True(t, ds.Value(2, "Region").IsNull())

	// Boolean cells infer as booleans.
	b, ok := ds.Value(1, "Live").AsBool()
	require.True(t, ok)
	assert.False(t, b)
}

func TestFromCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"duplicate header", "A,B,A\n1,2,3\n"},
		{"empty header name", "A,,C\n1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestFromCSVRaggedRow(t *testing.T) {
	// encoding/csv enforces rectangular records.
	_, err := FromCSV(strings.NewReader("A,B\n1\n"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	input := `[
		{"Site_ID": "S-001", "Delay_Days": 5, "Planned_OnAir_Date": "2024-03-15"},
		{"Site_ID": "S-002", "Delay_Days": null, "Reason": "permits"}
	]`
	ds, err := FromJSON(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, ds.NumRows())
	assert.True(t, ds.HasColumn("Reason"))

	// Date-shaped strings upgrade to timestamps.
	_, ok := ds.Value(0, "Planned_OnAir_Date").AsTime()
	assert.True(t, ok)

	// Keys absent from a record read as null.
	assert.True(t, ds.Value(0, "Reason").IsNull())
	assert.True(t, ds.Value(1, "Delay_Days").IsNull())
}

func TestFromJSONColumnOrderIsTextual(t *testing.T) {
	// Column order must follow the document text, not map iteration order,
	// or exports and merges change run to run.
	input := `[{"H": 1, "B": 2, "F": 3, "A": 4, "G": 5, "C": 6, "E": 7, "D": 8}]`
	want := []string{"H", "B", "F", "A", "G", "C", "E", "D"}

	for i := 0; i < 10; i++ {
		ds, err := FromJSON(strings.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, want, ds.Columns())
	}
}

func TestFromJSONLaterKeysAppendInTextualOrder(t *testing.T) {
	input := `[
		{"Site_ID": "S-001"},
		{"Site_ID": "S-002", "Region": "North", "Count": 2}
	]`
	ds, err := FromJSON(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Site_ID", "Region", "Count"}, ds.Columns())
}

func TestFromJSONL(t *testing.T) {
	input := `{"Region": "North", "Count": 1}

{"Region": "South", "Count": 2}
`
	ds, err := FromJSONL(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())

	n, ok := ds.Value(1, "Count").AsNumber()
	require.True(t, ok)
	assert.Equal(t, 2.0, n)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := writeFile(t, dir, "sites.csv", "A,B\n1,x\n")
	tsvPath := writeFile(t, dir, "sites.tsv", "A\tB\n1\tx\n")
	jsonPath := writeFile(t, dir, "sites.json", `[{"A": 1, "B": "x"}]`)

	for _, path := range []string{csvPath, tsvPath, jsonPath} {
		ds, err := LoadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, 1, ds.NumRows(), path)
	}

	_, err := LoadFile(writeFile(t, dir, "sites.xlsx", "binary"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestLoadFilesConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "Region,Count\nNorth,1\n")
	b := writeFile(t, dir, "b.csv", "Region,Count\nSouth,2\nEast,3\n")

	ds, err := LoadFiles(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Equal(t, 3, ds.NumRows())

	assert.Equal(t, "North", ds.Value(0, "Region").DisplayString())
	assert.Equal(t, "South", ds.Value(1, "Region").DisplayString())
	assert.Equal(t, "East", ds.Value(2, "Region").DisplayString())
}

func TestLoadFilesMergesJSON(t *testing.T) {
	// Two files with the same keys must merge: identical column order has to
	// come out of the decode, not luck.
	content := `[{"Region": "North", "Team": "Alpha", "Count": 1, "Live": true}]`
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", content)
	b := writeFile(t, dir, "b.json", content)

	for i := 0; i < 10; i++ {
		ds, err := LoadFiles(context.Background(), []string{a, b})
		require.NoError(t, err)
		require.Equal(t, 2, ds.NumRows())
		require.Equal(t, []string{"Region", "Team", "Count", "Live"}, ds.Columns())
	}
}

func TestLoadFilesColumnMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "Region,Count\nNorth,1\n")
	b := writeFile(t, dir, "b.csv", "Region,Total\nSouth,2\n")

	_, err := LoadFiles(context.Background(), []string{a, b})
	assert.Error(t, err)
}

func TestRowCallback(t *testing.T) {
	var last int
	_, err := FromCSV(strings.NewReader("A\n1\n2\n3\n"), WithRowCallback(func(n int) { last = n }))
	require.NoError(t, err)
	assert.Equal(t, 3, last)
}

func TestInferCellKinds(t *testing.T) {
	tests := []struct {
		raw  string
		kind dataset.Kind
	}{
		{"", dataset.KindNull},
		{"  ", dataset.KindNull},
		{"42", dataset.KindNumber},
		{"-3.5", dataset.KindNumber},
		{"true", dataset.KindBool},
		{"FALSE", dataset.KindBool},
		{"2024-03-15", dataset.KindTime},
		{"03/15/2024", dataset.KindTime},
		{"North", dataset.KindString},
		{"2024-03-99", dataset.KindString},
	}

	for _, tt := range tests {
		if got := inferCell(tt.raw).Kind(); got != tt.kind {
			t.Errorf("inferCell(%q).Kind() = %v, want %v", tt.raw, got, tt.kind)
		}
	}
}
