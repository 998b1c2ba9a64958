package dataset

import (
	"fmt"
)

// Dataset is an immutable-width table of rows addressed by index. Analyzers
// partition and filter by row index rather than copying row data.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty dataset with the given column names.
func New(columns []string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset: at least one column required")
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("dataset: column %d has an empty name", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("dataset: duplicate column %q", c)
		}
		index[c] = i
	}
	return &Dataset{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// Columns returns the column names in declaration order. Callers must not
// modify the returned slice.
func (d *Dataset) Columns() []string {
	return d.columns
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	return len(d.rows)
}

// NumColumns returns the column count.
func (d *Dataset) NumColumns() int {
	return len(d.columns)
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// AppendRow adds a row. The row must match the column count exactly.
func (d *Dataset) AppendRow(row []Value) error {
	if len(row) != len(d.columns) {
		return fmt.Errorf("dataset: row has %d values, want %d", len(row), len(d.columns))
	}
	d.rows = append(d.rows, row)
	return nil
}

// Value returns the cell at the given row for the named column. Unknown
// columns and out-of-range rows read as null.
func (d *Dataset) Value(row int, column string) Value {
	i, ok := d.index[column]
	if !ok {
		return Null()
	}
	return d.ValueAt(row, i)
}

// ValueAt returns the cell at the given row and column position.
// Out-of-range positions read as null.
func (d *Dataset) ValueAt(row, col int) Value {
	if row < 0 || row >= len(d.rows) || col < 0 || col >= len(d.columns) {
		return Null()
	}
	return d.rows[row][col]
}

// Row returns the cells of a single row. Callers must not modify the
// returned slice.
func (d *Dataset) Row(row int) []Value {
	if row < 0 || row >= len(d.rows) {
		return nil
	}
	return d.rows[row]
}

// AddColumn appends a derived column, or replaces an existing column of the
// same name in place. The value slice must cover every row.
func (d *Dataset) AddColumn(name string, values []Value) error {
	if name == "" {
		return fmt.Errorf("dataset: column name required")
	}
	if len(values) != len(d.rows) {
		return fmt.Errorf("dataset: column %q has %d values, want %d", name, len(values), len(d.rows))
	}
	if i, ok := d.index[name]; ok {
		for r := range d.rows {
			d.rows[r][i] = values[r]
		}
		return nil
	}
	d.index[name] = len(d.columns)
	d.columns = append(d.columns, name)
	for r := range d.rows {
		d.rows[r] = append(d.rows[r], values[r])
	}
	return nil
}

// Append concatenates another dataset with an identical column set, in
// order. Used when a dataset is split across several files.
func (d *Dataset) Append(other *Dataset) error {
	if other == nil {
		return nil
	}
	if len(other.columns) != len(d.columns) {
		return fmt.Errorf("dataset: cannot append %d columns onto %d", len(other.columns), len(d.columns))
	}
	for i, c := range d.columns {
		if other.columns[i] != c {
			return fmt.Errorf("dataset: column mismatch at %d: %q vs %q", i, c, other.columns[i])
		}
	}
	d.rows = append(d.rows, other.rows...)
	return nil
}
