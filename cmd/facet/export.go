package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the dataset back out as CSV, optionally annotated and filtered",
		ArgsUsage: "[dataset]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "annotate",
				Usage: "Include the derived schedule columns",
			},
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Status granularity for annotation: day, week, or month",
			},
			&cli.StringSliceFlag{
				Name:    "where",
				Aliases: []string{"w"},
				Usage:   "Row filter (repeatable)",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Keep only rows with this schedule status",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Destination file (default stdout)",
			},
		},
		Action: runExportCmd,
	}
}

func runExportCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := granularityFlag(c, cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ds, err := loadDataset(ctx, datasetPath(c), cfg)
	if err != nil {
		return err
	}

	// Status filtering needs the derived columns even without --annotate.
	if c.Bool("annotate") || c.String("status") != "" {
		annotateSchedule(ds, cfg.Columns.Schedule(), g)
	}

	rows, err := selectRows(ds, c.StringSlice("where"), c.String("status"), g)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = make([]int, ds.NumRows())
		for i := range rows {
			rows[i] = i
		}
	}

	var w io.Writer = os.Stdout
	outPath := c.String("out")
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns()); err != nil {
		return err
	}
	record := make([]string, ds.NumColumns())
	for _, r := range rows {
		for j := range record {
			record[j] = ds.ValueAt(r, j).DisplayString()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if outPath != "" {
		color.Green("Wrote %d rows to %s", len(rows), outPath)
	}
	return nil
}
