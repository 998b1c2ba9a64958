package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/facet/internal/cache"
	"github.com/panbanda/facet/internal/output"
	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/urfave/cli/v2"
)

func treeCmd() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "Build a decomposition tree over the dataset",
		ArgsUsage: "[dataset]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "by",
				Aliases: []string{"b"},
				Usage:   "Hierarchy column, outermost first (repeatable)",
			},
			&cli.StringFlag{
				Name:  "value",
				Usage: "Aggregation: count, sum:<column>, or avg:<column>",
			},
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Status granularity: day, week, or month",
			},
			&cli.StringSliceFlag{
				Name:  "tooltip",
				Usage: "Extra tooltip column (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "where",
				Aliases: []string{"w"},
				Usage:   "Row filter, e.g. 'Region=North' or 'Delay_Days>3' (repeatable)",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Keep only rows with this schedule status",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sibling order: value, percentage, or name",
			},
			&cli.BoolFlag{
				Name:  "desc",
				Usage: "Sort siblings in descending order",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Maximum tree depth",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Show only the top N children per node in text output",
			},
		},
		Action: runTreeCmd,
	}
}

func runTreeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	hierarchy := c.StringSlice("by")
	if len(hierarchy) == 0 {
		hierarchy = cfg.Analysis.Hierarchy
	}
	if len(hierarchy) == 0 {
		return fmt.Errorf("no hierarchy columns: pass --by or set analysis.hierarchy in the config")
	}

	g, err := granularityFlag(c, cfg)
	if err != nil {
		return err
	}

	valueExpr := c.String("value")
	if valueExpr == "" {
		valueExpr = cfg.Analysis.Value
	}

	tooltips := append(append([]string{}, cfg.Analysis.Tooltips...), c.StringSlice("tooltip")...)

	opts := []decomp.Option{
		decomp.WithHierarchy(hierarchy),
		decomp.WithGranularity(g),
		decomp.WithScheduleColumns(cfg.Columns.Schedule()),
	}
	if valueExpr != "" {
		rule, err := decomp.ParseValueRule(valueExpr)
		if err != nil {
			return err
		}
		opts = append(opts, decomp.WithValueRule(rule))
	}
	if len(tooltips) > 0 {
		opts = append(opts, decomp.WithAlwaysTooltipColumns(tooltips))
	}
	if s := c.String("sort"); s != "" {
		mode, err := decomp.ParseSortMode(s, c.Bool("desc"))
		if err != nil {
			return err
		}
		opts = append(opts, decomp.WithSort(mode))
	}
	if d := c.Int("depth"); d > 0 {
		opts = append(opts, decomp.WithMaxDepth(d))
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	path := datasetPath(c)
	top := c.Int("top")

	// Single-file runs are cached against the file content hash. Directory
	// runs rebuild every time.
	cc := resultCache(c, cfg)
	var contentHash string
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		contentHash, _ = cache.HashFile(path)
	}
	key := cache.Key("tree",
		path,
		strings.Join(hierarchy, ","),
		valueExpr,
		string(g),
		strings.Join(c.StringSlice("where"), ","),
		c.String("status"),
		strings.Join(tooltips, ","),
		c.String("sort"),
		strconv.FormatBool(c.Bool("desc")),
		strconv.Itoa(c.Int("depth")),
	)

	if contentHash != "" {
		if data, ok := cc.GetWithHash(key, contentHash); ok {
			var tree decomp.Tree
			if err := json.Unmarshal(data, &tree); err == nil {
				if c.Bool("verbose") {
					color.Cyan("Using cached tree")
				}
				return formatter.Output(&output.TreeView{Tree: &tree, Top: top})
			}
		}
	}

	ctx := context.Background()
	ds, err := loadDataset(ctx, path, cfg)
	if err != nil {
		return err
	}
	annotateSchedule(ds, cfg.Columns.Schedule(), g)

	rows, err := selectRows(ds, c.StringSlice("where"), c.String("status"), g)
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

	if contentHash != "" {
		if data, err := json.Marshal(tree); err == nil {
			_ = cc.SetWithHash(key, contentHash, data)
		}
	}

	return formatter.Output(&output.TreeView{Tree: tree, Top: top})
}
