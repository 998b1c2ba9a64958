package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/facet/internal/output"
	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/panbanda/facet/pkg/analyzer/kpi"
	"github.com/panbanda/facet/pkg/dataset"
	"github.com/panbanda/facet/pkg/loader"
	"github.com/panbanda/facet/pkg/schedule"
	toon "github.com/toon-format/toon-go"
)

// DefaultTreeTokenBudget caps tree results returned to a client. Oversized
// trees are depth-clipped until they fit.
const DefaultTreeTokenBudget = output.Budget32K

// Common input structures for tools

// DatasetInput is the base input for all dataset tools.
type DatasetInput struct {
	Dataset       string `json:"dataset" jsonschema:"Path to the dataset file (.csv, .tsv, .json, or .jsonl)."`
	Format        string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
	Granularity   string `json:"granularity,omitempty" jsonschema:"Status comparison granularity: day (default), week, or month."`
	PlannedColumn string `json:"planned_column,omitempty" jsonschema:"Planned date column. Default Planned_OnAir_Date."`
	ActualColumn  string `json:"actual_column,omitempty" jsonschema:"Actual date column. Default Actual_OnAir_Date."`
}

// TreeInput configures a decomposition tree build.
type TreeInput struct {
	DatasetInput
	Hierarchy []string `json:"hierarchy" jsonschema:"Ordered grouping columns, one tree level each. Required."`
	Value     string   `json:"value,omitempty" jsonschema:"Aggregation rule: count (default), sum:Column, or avg:Column."`
	Tooltips  []string `json:"tooltips,omitempty" jsonschema:"Extra columns to summarize in node tooltips."`
	Where     []string `json:"where,omitempty" jsonschema:"Row filters, e.g. Region=North, Delay_Days>=3, Delay_Reason~permit."`
	Status    string   `json:"status,omitempty" jsonschema:"Keep only rows with this schedule status (Early, On-Time, Delayed, Pending, No Data)."`
	Sort      string   `json:"sort,omitempty" jsonschema:"Sibling ordering: none (default), value, percentage, or name."`
	Desc      bool     `json:"desc,omitempty" jsonschema:"Sort descending."`
	MaxDepth  int      `json:"max_depth,omitempty" jsonschema:"Clip the hierarchy to at most N levels. 0 means no limit."`
	MaxTokens int      `json:"max_tokens,omitempty" jsonschema:"Token budget for the result. Oversized trees are depth-clipped. Default 32000."`
}

// KPIInput configures a KPI summary.
type KPIInput struct {
	DatasetInput
	Where      []string `json:"where,omitempty" jsonschema:"Row filters applied before summarizing."`
	Status     string   `json:"status,omitempty" jsonschema:"Keep only rows with this schedule status."`
	TopBuckets int      `json:"top_buckets,omitempty" jsonschema:"Size of the planned-bucket distribution. Default 5."`
}

// ClassifyInput configures a per-row classification preview.
type ClassifyInput struct {
	DatasetInput
	Status string `json:"status,omitempty" jsonschema:"Keep only rows with this schedule status."`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum rows to return. Default 20."`
}

// ColumnsInput configures a column profile.
type ColumnsInput struct {
	DatasetInput
}

// RowClassification is one row of the classify_rows result.
type RowClassification struct {
	Row       int             `json:"row" toon:"row"`
	Planned   string          `json:"planned,omitempty" toon:"planned,omitempty"`
	Actual    string          `json:"actual,omitempty" toon:"actual,omitempty"`
	Status    schedule.Status `json:"status" toon:"status"`
	DelayDays float64         `json:"delay_days,omitempty" toon:"delay_days,omitempty"`
}

// Helper functions

func loadDataset(input DatasetInput) (*dataset.Dataset, error) {
	return loader.LoadFile(input.Dataset)
}

func getGranularity(input DatasetInput) (schedule.Granularity, error) {
	if input.Granularity == "" {
		return schedule.Day, nil
	}
	return schedule.ParseGranularity(input.Granularity)
}

func getScheduleColumns(input DatasetInput) schedule.Columns {
	cols := schedule.Columns{
		Planned: "Planned_OnAir_Date",
		Actual:  "Actual_OnAir_Date",
	}
	if input.PlannedColumn != "" {
		cols.Planned = input.PlannedColumn
	}
	if input.ActualColumn != "" {
		cols.Actual = input.ActualColumn
	}
	return cols
}

// selectRows parses and applies the where filters plus the optional status
// shorthand. The status filter reads the derived column for the requested
// granularity, so the dataset must be annotated before calling.
func selectRows(ds *dataset.Dataset, where []string, status string, g schedule.Granularity) ([]int, error) {
	filters, err := decomp.ParseFilters(where)
	if err != nil {
		return nil, err
	}
	if status != "" {
		filters = append(filters, decomp.StatusFilter(schedule.StatusColumn(g), status))
	}
	bm, err := decomp.ApplyFilters(ds, filters)
	if err != nil {
		return nil, err
	}
	return decomp.SelectRows(bm), nil
}

func formatOutput(data any, format string) (string, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format string) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// clipTreeDepth drops every node below maxLevel and the leaf row indexes of
// the new deepest level, then recomputes the summary.
func clipTreeDepth(tree *decomp.Tree, maxLevel int) {
	if tree.Root == nil {
		return
	}
	tree.Root.Walk(func(n *decomp.Node) {
		if n.Level >= maxLevel {
			n.Children = nil
			n.RowIndexes = nil
		}
	})
	tree.CalculateSummary()
}

// fitTreeToBudget renders the tree, clipping one level at a time until the
// estimated token count fits the budget or only the first level remains.
func fitTreeToBudget(tree *decomp.Tree, format string, budget int) (string, error) {
	if budget <= 0 {
		budget = DefaultTreeTokenBudget
	}

	text, err := formatOutput(tree, format)
	if err != nil {
		return "", err
	}

	for output.EstimateTokens(text) > budget && tree.Summary.MaxDepth > 1 {
		clipTreeDepth(tree, tree.Summary.MaxDepth-2)
		text, err = formatOutput(tree, format)
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

// Tool handlers

func handleBuildTree(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, any, error) {
	if len(input.Hierarchy) == 0 {
		return toolError("hierarchy is required: name at least one grouping column")
	}

	g, err := getGranularity(input.DatasetInput)
	if err != nil {
		return toolError(err.Error())
	}

	ds, err := loadDataset(input.DatasetInput)
	if err != nil {
		return toolError(err.Error())
	}

	cols := getScheduleColumns(input.DatasetInput)
	if ds.HasColumn(cols.Planned) {
		if err := schedule.Annotate(ds, cols, g); err != nil {
			return toolError(err.Error())
		}
	}

	rows, err := selectRows(ds, input.Where, input.Status, g)
	if err != nil {
		return toolError(err.Error())
	}

	opts := []decomp.Option{
		decomp.WithHierarchy(input.Hierarchy),
		decomp.WithGranularity(g),
		decomp.WithScheduleColumns(cols),
	}
	if input.Value != "" {
		rule, err := decomp.ParseValueRule(input.Value)
		if err != nil {
			return toolError(err.Error())
		}
		opts = append(opts, decomp.WithValueRule(rule))
	}
	if len(input.Tooltips) > 0 {
		opts = append(opts, decomp.WithTooltipColumns(input.Tooltips))
	}
	if input.Sort != "" {
		mode, err := decomp.ParseSortMode(input.Sort, input.Desc)
		if err != nil {
			return toolError(err.Error())
		}
		opts = append(opts, decomp.WithSort(mode))
	}
	if input.MaxDepth > 0 {
		opts = append(opts, decomp.WithMaxDepth(input.MaxDepth))
	}

	tree, err := decomp.New(opts...).BuildTreeRows(ctx, ds, rows)
	if err != nil {
		return toolError(err.Error())
	}

	text, err := fitTreeToBudget(tree, input.Format, input.MaxTokens)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func handleKPISummary(ctx context.Context, req *mcp.CallToolRequest, input KPIInput) (*mcp.CallToolResult, any, error) {
	g, err := getGranularity(input.DatasetInput)
	if err != nil {
		return toolError(err.Error())
	}

	ds, err := loadDataset(input.DatasetInput)
	if err != nil {
		return toolError(err.Error())
	}

	cols := getScheduleColumns(input.DatasetInput)
	if ds.HasColumn(cols.Planned) {
		if err := schedule.Annotate(ds, cols, g); err != nil {
			return toolError(err.Error())
		}
	}

	rows, err := selectRows(ds, input.Where, input.Status, g)
	if err != nil {
		return toolError(err.Error())
	}

	opts := []kpi.Option{
		kpi.WithGranularity(g),
		kpi.WithScheduleColumns(cols),
	}
	if input.TopBuckets > 0 {
		opts = append(opts, kpi.WithTopBuckets(input.TopBuckets))
	}

	summary, err := kpi.New(opts...).SummarizeRows(ctx, ds, rows)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(summary, input.Format)
}

func handleClassifyRows(ctx context.Context, req *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, any, error) {
	g, err := getGranularity(input.DatasetInput)
	if err != nil {
		return toolError(err.Error())
	}

	ds, err := loadDataset(input.DatasetInput)
	if err != nil {
		return toolError(err.Error())
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	cols := getScheduleColumns(input.DatasetInput)
	statuses := schedule.RowStatuses(ds, cols, g)
	if statuses == nil {
		return toolError("planned column " + cols.Planned + " not found in dataset")
	}

	var classified []RowClassification
	for row := 0; row < ds.NumRows() && len(classified) < limit; row++ {
		if input.Status != "" && string(statuses[row]) != input.Status {
			continue
		}
		rc := RowClassification{
			Row:     row,
			Planned: ds.Value(row, cols.Planned).DisplayString(),
			Actual:  ds.Value(row, cols.Actual).DisplayString(),
			Status:  statuses[row],
		}
		if d, ok := schedule.RowDelay(ds, cols, row); ok {
			rc.DelayDays = d
		}
		classified = append(classified, rc)
	}

	result := struct {
		TotalRows   int                  `json:"total_rows" toon:"total_rows"`
		Granularity schedule.Granularity `json:"granularity" toon:"granularity"`
		Rows        []RowClassification  `json:"rows" toon:"rows"`
	}{ds.NumRows(), g, classified}

	return toolResult(result, input.Format)
}

func handleListColumns(ctx context.Context, req *mcp.CallToolRequest, input ColumnsInput) (*mcp.CallToolResult, any, error) {
	ds, err := loadDataset(input.DatasetInput)
	if err != nil {
		return toolError(err.Error())
	}

	result := struct {
		Rows    int                     `json:"rows" toon:"rows"`
		Columns []dataset.ColumnProfile `json:"columns" toon:"columns"`
	}{ds.NumRows(), ds.Profile()}

	return toolResult(result, input.Format)
}
