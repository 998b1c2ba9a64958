package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/facet/internal/output"
	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/panbanda/facet/pkg/analyzer/kpi"
	"github.com/panbanda/facet/pkg/report"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/urfave/cli/v2"
)

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Run or validate saved report definitions",
		Subcommands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Replay a saved report definition against a dataset",
				ArgsUsage: "<definition> [dataset]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "kpi",
						Usage: "Summarize KPIs instead of building the tree",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Show only the top N children per node in text output",
					},
				},
				Action: runReportRunCmd,
			},
			{
				Name:      "validate",
				Usage:     "Check a report definition against the schema",
				ArgsUsage: "<definition>",
				Action:    runReportValidateCmd,
			},
		},
	}
}

// reportColumns resolves the schedule columns a definition analyzes with,
// matching the defaults its analyzer options use.
func reportColumns(def *report.Definition) schedule.Columns {
	cols := schedule.Columns{
		Planned: "Planned_OnAir_Date",
		Actual:  "Actual_OnAir_Date",
	}
	if def.Columns != nil {
		if def.Columns.Planned != "" {
			cols.Planned = def.Columns.Planned
		}
		if def.Columns.Actual != "" {
			cols.Actual = def.Columns.Actual
		}
	}
	return cols
}

func runReportRunCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("report run requires a definition file")
	}
	def, err := report.Load(c.Args().Get(0))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path := "."
	if c.Args().Len() > 1 {
		path = c.Args().Get(1)
	}

	g := cfg.Granularity()
	if def.Granularity != "" {
		g, err = schedule.ParseGranularity(def.Granularity)
		if err != nil {
			return err
		}
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	ctx := context.Background()
	ds, err := loadDataset(ctx, path, cfg)
	if err != nil {
		return err
	}
	annotateSchedule(ds, reportColumns(def), g)

	filters, err := def.RowFilters(schedule.StatusColumn(g))
	if err != nil {
		return err
	}
	var rows []int
	if len(filters) > 0 {
		bm, err := decomp.ApplyFilters(ds, filters)
		if err != nil {
			return err
		}
		rows = decomp.SelectRows(bm)
	}

	if formatter.Format() == output.FormatText && def.Name != "" {
		if formatter.Colored() {
			color.Cyan("Report: %s", def.Name)
		} else {
			fmt.Fprintf(formatter.Writer(), "Report: %s\n", def.Name)
		}
		if def.Description != "" {
			fmt.Fprintln(formatter.Writer(), def.Description)
		}
		fmt.Fprintln(formatter.Writer())
	}

	if c.Bool("kpi") {
		opts, err := def.KPIOptions()
		if err != nil {
			return err
		}
		an := kpi.New(opts...)
		var summary *kpi.Summary
		if rows == nil {
			summary, err = an.Summarize(ctx, ds)
		} else {
			summary, err = an.SummarizeRows(ctx, ds, rows)
		}
		if err != nil {
			return err
		}
		return outputKPI(formatter, summary)
	}

	opts, err := def.TreeOptions()
	if err != nil {
		return err
	}
	an := decomp.New(opts...)
	var tree *decomp.Tree
	if rows == nil {
		tree, err = an.BuildTree(ctx, ds)
	} else {
		tree, err = an.BuildTreeRows(ctx, ds, rows)
	}
	if err != nil {
		return fmt.Errorf("building tree: %w", err)
	}

	return formatter.Output(&output.TreeView{Tree: tree, Top: c.Int("top")})
}

func runReportValidateCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("report validate requires a definition file")
	}
	path := c.Args().Get(0)
	def, err := report.Load(path)
	if err != nil {
		return err
	}
	color.Green("%s: valid (%s, %d hierarchy levels)", path, def.Name, len(def.Hierarchy))
	return nil
}
