package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/facet/internal/output"
	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/panbanda/facet/pkg/analyzer/kpi"
	"github.com/panbanda/facet/pkg/loader"
	"github.com/panbanda/facet/pkg/watch"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-run analysis when the dataset changes on disk",
		ArgsUsage: "[dataset]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "tree",
				Usage: "Rebuild the decomposition tree instead of the KPI line",
			},
			&cli.StringSliceFlag{
				Name:    "by",
				Aliases: []string{"b"},
				Usage:   "Hierarchy column for --tree (repeatable)",
			},
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Status granularity: day, week, or month",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before re-analysis",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := granularityFlag(c, cfg)
	if err != nil {
		return err
	}

	buildTree := c.Bool("tree")
	hierarchy := c.StringSlice("by")
	if len(hierarchy) == 0 {
		hierarchy = cfg.Analysis.Hierarchy
	}
	if buildTree && len(hierarchy) == 0 {
		return fmt.Errorf("--tree needs hierarchy columns: pass --by or set analysis.hierarchy in the config")
	}

	path := datasetPath(c)
	watcher, err := watch.NewWatcher(path, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Stop()

	colored := cfg.Output.Color && !c.Bool("no-color")

	rerun := func(changed string) {
		ds, err := loader.LoadFile(changed)
		if err != nil {
			color.Red("Reload failed: %v", err)
			return
		}
		annotateSchedule(ds, cfg.Columns.Schedule(), g)
		ctx := context.Background()

		if buildTree {
			an := decomp.New(
				decomp.WithHierarchy(hierarchy),
				decomp.WithGranularity(g),
				decomp.WithScheduleColumns(cfg.Columns.Schedule()),
			)
			tree, err := an.BuildTree(ctx, ds)
			if err != nil {
				color.Red("Tree rebuild failed: %v", err)
				return
			}
			view := &output.TreeView{Tree: tree}
			_ = view.RenderText(os.Stdout, colored)
			return
		}

		an := kpi.New(
			kpi.WithGranularity(g),
			kpi.WithScheduleColumns(cfg.Columns.Schedule()),
			kpi.WithTopBuckets(cfg.Analysis.TopBuckets),
		)
		summary, err := an.Summarize(ctx, ds)
		if err != nil {
			color.Red("KPI summary failed: %v", err)
			return
		}
		printKPILine(summary, colored)
	}
	watcher.SetCallback(rerun)

	// First pass up front so the terminal shows the current state.
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		rerun(path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// printKPILine writes the compact one-line summary used between changes.
func printKPILine(s *kpi.Summary, colored bool) {
	fmt.Printf("[%s] %d rows  ", time.Now().Format("15:04:05"), s.TotalRows)
	for _, st := range statusOrder {
		name := string(st)
		if colored {
			name = output.StatusColor(st, name)
		}
		fmt.Printf("%s: %d  ", name, s.Count(st))
	}
	fmt.Printf("avg delay %.1fd\n", s.AvgDelayDays)
}
