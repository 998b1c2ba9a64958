package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/panbanda/facet/pkg/dataset"
)

// Option is a functional option for configuring loading.
type Option func(*options)

type options struct {
	delimiter rune
	onRow     func(n int)
}

// WithDelimiter sets the field delimiter. Defaults to comma; tab for .tsv.
func WithDelimiter(d rune) Option {
	return func(o *options) {
		o.delimiter = d
	}
}

// WithRowCallback registers a callback invoked after every loaded row with
// the running row count. Used by the CLI to drive progress bars.
func WithRowCallback(fn func(n int)) Option {
	return func(o *options) {
		o.onRow = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FromCSV reads a delimited dataset. The first record is the header row;
// duplicate or empty header names are rejected. Cells are type-inferred:
// numbers, booleans, and date-shaped strings become their native kinds, an
// empty cell becomes null, everything else stays a string.
func FromCSV(r io.Reader, opts ...Option) (*dataset.Dataset, error) {
	o := buildOptions(opts)

	cr := csv.NewReader(r)
	cr.Comma = o.delimiter
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("loader: empty input, header row required")
	}
	if err != nil {
		return nil, fmt.Errorf("loader: reading header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	ds, err := dataset.New(columns)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	n := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader: row %d: %w", n+1, err)
		}
		row := make([]dataset.Value, len(columns))
		for i := range columns {
			if i < len(record) {
				row[i] = inferCell(record[i])
			} else {
				row[i] = dataset.Null()
			}
		}
		if err := ds.AppendRow(row); err != nil {
			return nil, fmt.Errorf("loader: row %d: %w", n+1, err)
		}
		n++
		if o.onRow != nil {
			o.onRow(n)
		}
	}
	return ds, nil
}

// inferCell converts one raw cell into a typed value.
func inferCell(raw string) dataset.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return dataset.Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return dataset.Number(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return dataset.Bool(true)
	case "false":
		return dataset.Bool(false)
	}
	if t, ok := dataset.ParseTime(s); ok {
		return dataset.Time(t)
	}
	return dataset.String(s)
}
