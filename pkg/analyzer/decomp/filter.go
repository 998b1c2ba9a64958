package decomp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/facet/pkg/dataset"
)

// FilterOp is a row predicate operator.
type FilterOp string

const (
	OpEq       FilterOp = "eq"
	OpNe       FilterOp = "ne"
	OpContains FilterOp = "contains"
	OpGt       FilterOp = "gt"
	OpLt       FilterOp = "lt"
	OpGe       FilterOp = "ge"
	OpLe       FilterOp = "le"
)

// Filter restricts rows by comparing one column against an operand.
// Comparison is numeric when both sides parse as numbers, string otherwise.
type Filter struct {
	Column  string   `json:"column" toon:"column"`
	Op      FilterOp `json:"op" toon:"op"`
	Operand string   `json:"operand" toon:"operand"`
}

// filterSyntax maps CLI operators onto ops, longest first so ">=" is not
// read as ">".
var filterSyntax = []struct {
	token string
	op    FilterOp
}{
	{"!=", OpNe},
	{">=", OpGe},
	{"<=", OpLe},
	{"=", OpEq},
	{"~", OpContains},
	{">", OpGt},
	{"<", OpLt},
}

// ParseFilter reads a filter from CLI syntax, e.g. "Region=North",
// "Delay_Days>=3", "Delay_Reason~permit".
func ParseFilter(s string) (Filter, error) {
	for _, syn := range filterSyntax {
		i := strings.Index(s, syn.token)
		if i <= 0 {
			continue
		}
		column := strings.TrimSpace(s[:i])
		operand := strings.TrimSpace(s[i+len(syn.token):])
		if column == "" || operand == "" {
			return Filter{}, fmt.Errorf("decomp: invalid filter %q", s)
		}
		return Filter{Column: column, Op: syn.op, Operand: operand}, nil
	}
	return Filter{}, fmt.Errorf("decomp: invalid filter %q (want Column=Value, Column!=Value, Column~Value, or a <,>,<=,>= comparison)", s)
}

// ParseFilters parses several CLI filter expressions.
func ParseFilters(exprs []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(exprs))
	for _, e := range exprs {
		f, err := ParseFilter(e)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// StatusFilter returns the shorthand filter on the derived status column.
func StatusFilter(column, status string) Filter {
	return Filter{Column: column, Op: OpEq, Operand: status}
}

// ApplyFilters scans the dataset once per filter into roaring bitmaps of
// matching row indices and intersects them. No filters selects every row.
func ApplyFilters(ds *dataset.Dataset, filters []Filter) (*roaring.Bitmap, error) {
	result := roaring.New()
	result.AddRange(0, uint64(ds.NumRows()))

	for _, f := range filters {
		idx, ok := ds.ColumnIndex(f.Column)
		if !ok {
			return nil, fmt.Errorf("decomp: filter column %q not found in dataset", f.Column)
		}
		bm := roaring.New()
		for row := 0; row < ds.NumRows(); row++ {
			if f.matches(ds.ValueAt(row, idx)) {
				bm.Add(uint32(row))
			}
		}
		result.And(bm)
	}
	return result, nil
}

// SelectRows materializes the ordered row-index slice of a bitmap.
func SelectRows(bm *roaring.Bitmap) []int {
	rows := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}
	return rows
}

func (f Filter) matches(v dataset.Value) bool {
	cell := v.DisplayString()
	switch f.Op {
	case OpContains:
		return strings.Contains(strings.ToLower(cell), strings.ToLower(f.Operand))
	case OpEq:
		return compareCell(v, cell, f.Operand) == 0
	case OpNe:
		return compareCell(v, cell, f.Operand) != 0
	}

	// Ordered comparisons require both sides to be comparable; a null cell
	// never matches.
	if v.IsNull() {
		return false
	}
	c := compareCell(v, cell, f.Operand)
	switch f.Op {
	case OpGt:
		return c > 0
	case OpLt:
		return c < 0
	case OpGe:
		return c >= 0
	case OpLe:
		return c <= 0
	default:
		return false
	}
}

// compareCell three-way compares a cell against an operand, numerically when
// both sides are numbers and lexically otherwise.
func compareCell(v dataset.Value, cell, operand string) int {
	if n, ok := v.AsNumber(); ok {
		if o, err := strconv.ParseFloat(operand, 64); err == nil {
			switch {
			case n < o:
				return -1
			case n > o:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(cell, operand)
}
