package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/panbanda/facet/pkg/dataset"
)

// FromJSON reads a dataset from a JSON array of flat objects. The column set
// is the union of keys across all objects, ordered by first appearance in
// the document text; rows missing a key read as null. Nested arrays and
// objects are preserved as sequence and mapping values.
func FromJSON(r io.Reader, opts ...Option) (*dataset.Dataset, error) {
	o := buildOptions(opts)

	dec := json.NewDecoder(r)
	var raws []json.RawMessage
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("loader: decoding JSON array: %w", err)
	}

	records := make([]jsonRecord, 0, len(raws))
	for n, raw := range raws {
		rec, err := decodeJSONRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("loader: record %d: %w", n, err)
		}
		records = append(records, rec)
	}
	return fromRecords(records, o)
}

// FromJSONL reads a dataset from newline-delimited JSON objects. Blank lines
// are skipped.
func FromJSONL(r io.Reader, opts ...Option) (*dataset.Dataset, error) {
	o := buildOptions(opts)

	var records []jsonRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec, err := decodeJSONRecord([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("loader: line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return fromRecords(records, o)
}

// jsonRecord is one decoded object plus its keys in document order. Maps
// alone would lose the order: Go randomizes map iteration, and column
// order must be reproducible run to run for exports and multi-file merges.
type jsonRecord struct {
	keys   []string
	fields map[string]json.RawMessage
}

// decodeJSONRecord walks an object token by token so the textual key order
// survives decoding. Duplicate keys keep the last value, first position.
func decodeJSONRecord(raw []byte) (jsonRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return jsonRecord{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return jsonRecord{}, fmt.Errorf("expected an object, got %v", tok)
	}

	rec := jsonRecord{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return jsonRecord{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return jsonRecord{}, fmt.Errorf("expected a field name, got %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return jsonRecord{}, fmt.Errorf("field %q: %w", key, err)
		}

		if _, dup := rec.fields[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return jsonRecord{}, err
	}
	return rec, nil
}

func fromRecords(records []jsonRecord, o options) (*dataset.Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("loader: no records found")
	}

	// Column order follows first appearance across records, in document
	// order within each record.
	var columns []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, k := range rec.keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}

	ds, err := dataset.New(columns)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	for n, rec := range records {
		row := make([]dataset.Value, len(columns))
		for i, col := range columns {
			raw, ok := rec.fields[col]
			if !ok {
				row[i] = dataset.Null()
				continue
			}
			var v dataset.Value
			if err := v.UnmarshalJSON(raw); err != nil {
				return nil, fmt.Errorf("loader: record %d, field %q: %w", n, col, err)
			}
			row[i] = refineJSONValue(v)
		}
		if err := ds.AppendRow(row); err != nil {
			return nil, fmt.Errorf("loader: record %d: %w", n, err)
		}
		if o.onRow != nil {
			o.onRow(n + 1)
		}
	}
	return ds, nil
}

// refineJSONValue upgrades date-shaped strings to timestamps. JSON has no
// temporal type, so the loader owns the inference.
func refineJSONValue(v dataset.Value) dataset.Value {
	if s, ok := v.AsString(); ok {
		if t, ok := dataset.ParseTime(s); ok {
			return dataset.Time(t)
		}
	}
	return v
}
