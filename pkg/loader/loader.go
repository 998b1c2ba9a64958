// Package loader ingests tabular files into datasets. CSV and TSV carry
// their own header row; JSON and JSONL carry an array or stream of flat
// objects. Cell typing is inferred here so downstream analyzers only ever
// see closed dataset values.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/panbanda/facet/internal/fileproc"
	"github.com/panbanda/facet/pkg/dataset"
)

// SupportedExtensions lists the file extensions LoadFile understands.
var SupportedExtensions = []string{".csv", ".tsv", ".json", ".jsonl"}

// IsSupported reports whether the path has a loadable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile loads a dataset from a single file, dispatching on extension.
func LoadFile(path string, opts ...Option) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FromCSV(f, opts...)
	case ".tsv":
		return FromCSV(f, append([]Option{WithDelimiter('\t')}, opts...)...)
	case ".json":
		return FromJSON(f, opts...)
	case ".jsonl":
		return FromJSONL(f, opts...)
	default:
		return nil, fmt.Errorf("loader: unsupported file type %q (want .csv, .tsv, .json, or .jsonl)", filepath.Ext(path))
	}
}

// FromBytes parses in-memory content, dispatching on the extension of name.
// Used when the bytes come from somewhere other than the working tree, such
// as a historical git blob.
func FromBytes(name string, data []byte, opts ...Option) (*dataset.Dataset, error) {
	r := bytes.NewReader(data)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FromCSV(r, opts...)
	case ".tsv":
		return FromCSV(r, append([]Option{WithDelimiter('\t')}, opts...)...)
	case ".json":
		return FromJSON(r, opts...)
	case ".jsonl":
		return FromJSONL(r, opts...)
	default:
		return nil, fmt.Errorf("loader: unsupported file type %q (want .csv, .tsv, .json, or .jsonl)", filepath.Ext(name))
	}
}

// LoadFiles loads several files in parallel and concatenates them in input
// order. Every file must carry an identical column set; per-file load
// failures abort the whole load.
func LoadFiles(ctx context.Context, paths []string, opts ...Option) (*dataset.Dataset, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("loader: no files to load")
	}
	if len(paths) == 1 {
		return LoadFile(paths[0], opts...)
	}

	parts, errs := fileproc.ForEachFileIndexed(ctx, paths, func(path string) (*dataset.Dataset, error) {
		return LoadFile(path, opts...)
	})
	if errs != nil {
		return nil, fmt.Errorf("loader: %w", errs)
	}

	combined := parts[0]
	for i, part := range parts[1:] {
		if err := combined.Append(part); err != nil {
			return nil, fmt.Errorf("loader: %s: %w", paths[i+1], err)
		}
	}
	return combined, nil
}
