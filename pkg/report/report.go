// Package report loads saved report definitions: named, schema-validated
// analysis configurations that the CLI and MCP server replay against a
// dataset.
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/panbanda/facet/pkg/analyzer/kpi"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schemaVal  *jsonschema.Schema
	schemaErr  error
)

// ColumnsOverride renames the schedule date columns for one report.
type ColumnsOverride struct {
	Planned string `json:"planned,omitempty" yaml:"planned"`
	Actual  string `json:"actual,omitempty" yaml:"actual"`
}

// Definition is one saved report. Zero values mean "use the analyzer
// default".
type Definition struct {
	Name           string           `json:"name" yaml:"name"`
	Description    string           `json:"description,omitempty" yaml:"description"`
	Hierarchy      []string         `json:"hierarchy" yaml:"hierarchy"`
	Value          string           `json:"value,omitempty" yaml:"value"`
	Granularity    string           `json:"granularity,omitempty" yaml:"granularity"`
	TooltipColumns []string         `json:"tooltip_columns,omitempty" yaml:"tooltip_columns"`
	Filters        []string         `json:"filters,omitempty" yaml:"filters"`
	Status         string           `json:"status,omitempty" yaml:"status"`
	Sort           string           `json:"sort,omitempty" yaml:"sort"`
	Descending     bool             `json:"descending,omitempty" yaml:"descending"`
	MaxDepth       int              `json:"max_depth,omitempty" yaml:"max_depth"`
	TopBuckets     int              `json:"top_buckets,omitempty" yaml:"top_buckets"`
	Columns        *ColumnsOverride `json:"columns,omitempty" yaml:"columns"`
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("report.schema.json", doc); err != nil {
			schemaErr = err
			return
		}
		schemaVal, schemaErr = compiler.Compile("report.schema.json")
	})
	return schemaVal, schemaErr
}

// Load reads and validates a definition file, dispatching on extension.
// JSON and YAML are accepted; both are checked against the embedded schema.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	def, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("report: %s: %w", path, err)
	}
	return def, nil
}

// Parse validates raw definition content. The extension selects the syntax;
// an empty extension means JSON.
func Parse(data []byte, ext string) (*Definition, error) {
	var doc any
	switch strings.ToLower(ext) {
	case ".json", "":
		d, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
		doc = d
	case ".yaml", ".yml":
		var y any
		if err := yaml.Unmarshal(data, &y); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		// Round-trip through JSON so the validator sees the same value
		// shapes for both syntaxes.
		buf, err := json.Marshal(y)
		if err != nil {
			return nil, fmt.Errorf("converting yaml: %w", err)
		}
		doc, err = jsonschema.UnmarshalJSON(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("converting yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition type %q (want .json, .yaml, or .yml)", ext)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(encoded, &def); err != nil {
		return nil, err
	}
	if err := def.check(); err != nil {
		return nil, err
	}
	return &def, nil
}

// check catches semantic problems the schema cannot express.
func (d *Definition) check() error {
	if d.Value != "" {
		if _, err := decomp.ParseValueRule(d.Value); err != nil {
			return err
		}
	}
	if d.Granularity != "" {
		if _, err := schedule.ParseGranularity(d.Granularity); err != nil {
			return err
		}
	}
	if d.Sort != "" {
		if _, err := decomp.ParseSortMode(d.Sort, d.Descending); err != nil {
			return err
		}
	}
	if _, err := decomp.ParseFilters(d.Filters); err != nil {
		return err
	}
	return nil
}

// scheduleColumns resolves the date columns with report overrides applied.
func (d *Definition) scheduleColumns() schedule.Columns {
	cols := schedule.Columns{
		Planned: "Planned_OnAir_Date",
		Actual:  "Actual_OnAir_Date",
	}
	if d.Columns != nil {
		if d.Columns.Planned != "" {
			cols.Planned = d.Columns.Planned
		}
		if d.Columns.Actual != "" {
			cols.Actual = d.Columns.Actual
		}
	}
	return cols
}

// TreeOptions translates the definition into decomposition analyzer options.
func (d *Definition) TreeOptions() ([]decomp.Option, error) {
	opts := []decomp.Option{
		decomp.WithHierarchy(d.Hierarchy),
		decomp.WithScheduleColumns(d.scheduleColumns()),
	}
	if d.Value != "" {
		rule, err := decomp.ParseValueRule(d.Value)
		if err != nil {
			return nil, err
		}
		opts = append(opts, decomp.WithValueRule(rule))
	}
	if d.Granularity != "" {
		g, err := schedule.ParseGranularity(d.Granularity)
		if err != nil {
			return nil, err
		}
		opts = append(opts, decomp.WithGranularity(g))
	}
	if len(d.TooltipColumns) > 0 {
		opts = append(opts, decomp.WithTooltipColumns(d.TooltipColumns))
	}
	if d.Sort != "" {
		mode, err := decomp.ParseSortMode(d.Sort, d.Descending)
		if err != nil {
			return nil, err
		}
		opts = append(opts, decomp.WithSort(mode))
	}
	if d.MaxDepth > 0 {
		opts = append(opts, decomp.WithMaxDepth(d.MaxDepth))
	}
	return opts, nil
}

// KPIOptions translates the definition into KPI analyzer options.
func (d *Definition) KPIOptions() ([]kpi.Option, error) {
	opts := []kpi.Option{
		kpi.WithScheduleColumns(d.scheduleColumns()),
	}
	if d.Granularity != "" {
		g, err := schedule.ParseGranularity(d.Granularity)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kpi.WithGranularity(g))
	}
	if d.TopBuckets > 0 {
		opts = append(opts, kpi.WithTopBuckets(d.TopBuckets))
	}
	return opts, nil
}

// RowFilters parses the filter expressions plus the optional status filter
// against statusColumn.
func (d *Definition) RowFilters(statusColumn string) ([]decomp.Filter, error) {
	filters, err := decomp.ParseFilters(d.Filters)
	if err != nil {
		return nil, err
	}
	if d.Status != "" {
		filters = append(filters, decomp.StatusFilter(statusColumn, d.Status))
	}
	return filters, nil
}
