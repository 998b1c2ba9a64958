package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadColumns(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err, "empty column set should fail")

	_, err = New([]string{"A", "B", "A"})
	assert.Error(t, err, "duplicate columns should fail")

	_, err = New([]string{"A", ""})
	assert.Error(t, err, "empty column name should fail")
}

func TestAppendRowAndAccess(t *testing.T) {
	ds, err := New([]string{"Region", "Units"})
	require.NoError(t, err)

	require.NoError(t, ds.AppendRow([]Value{String("West"), Number(3)}))
	require.NoError(t, ds.AppendRow([]Value{String("East"), Number(5)}))

	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, 2, ds.NumColumns())
	assert.Equal(t, "West", ds.Value(0, "Region").DisplayString())
	assert.Equal(t, "5", ds.Value(1, "Units").DisplayString())

	err = ds.AppendRow([]Value{String("short")})
	assert.Error(t, err, "row width mismatch should fail")
}

func TestValueOutOfRangeReadsNull(t *testing.T) {
	ds, err := New([]string{"A"})
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow([]Value{Number(1)}))

	assert.True(t, ds.Value(5, "A").IsNull())
	assert.True(t, ds.Value(0, "Missing").IsNull())
	assert.True(t, ds.ValueAt(-1, 0).IsNull())
	assert.True(t, ds.ValueAt(0, 9).IsNull())
}

func TestAddColumn(t *testing.T) {
	ds, err := New([]string{"Name"})
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow([]Value{String("a")}))
	require.NoError(t, ds.AppendRow([]Value{String("b")}))

	require.NoError(t, ds.AddColumn("Score", []Value{Number(1), Number(2)}))
	assert.Equal(t, []string{"Name", "Score"}, ds.Columns())
	assert.Equal(t, "2", ds.Value(1, "Score").DisplayString())

	// Replacing an existing column keeps the width stable.
	require.NoError(t, ds.AddColumn("Score", []Value{Number(10), Number(20)}))
	assert.Equal(t, 2, ds.NumColumns())
	assert.Equal(t, "10", ds.Value(0, "Score").DisplayString())

	err = ds.AddColumn("Bad", []Value{Number(1)})
	assert.Error(t, err, "value count mismatch should fail")
}

func TestAppendDataset(t *testing.T) {
	a, err := New([]string{"X", "Y"})
	require.NoError(t, err)
	require.NoError(t, a.AppendRow([]Value{Number(1), Number(2)}))

	b, err := New([]string{"X", "Y"})
	require.NoError(t, err)
	require.NoError(t, b.AppendRow([]Value{Number(3), Number(4)}))

	require.NoError(t, a.Append(b))
	assert.Equal(t, 2, a.NumRows())
	assert.Equal(t, "3", a.Value(1, "X").DisplayString())

	c, err := New([]string{"X", "Z"})
	require.NoError(t, err)
	assert.Error(t, a.Append(c), "column name mismatch should fail")
}

func TestProfile(t *testing.T) {
	ds, err := New([]string{"Name", "Count", "Empty"})
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow([]Value{String("a"), Number(1), Null()}))
	require.NoError(t, ds.AppendRow([]Value{String("b"), Number(2), Null()}))
	require.NoError(t, ds.AppendRow([]Value{String("a"), Null(), Null()}))

	profiles := ds.Profile()
	require.Len(t, profiles, 3)

	assert.Equal(t, "string", profiles[0].Kind)
	assert.Equal(t, 2, profiles[0].Distinct)
	assert.Equal(t, 0, profiles[0].Nulls)
	assert.Equal(t, []string{"a", "b"}, profiles[0].Examples)

	assert.Equal(t, "number", profiles[1].Kind)
	assert.Equal(t, 1, profiles[1].Nulls)

	assert.Equal(t, "null", profiles[2].Kind)
	assert.Equal(t, 3, profiles[2].Nulls)
	assert.Equal(t, 0, profiles[2].Distinct)
}
