package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/facet/internal/cache"
	"github.com/panbanda/facet/internal/output"
	"github.com/panbanda/facet/internal/progress"
	"github.com/panbanda/facet/internal/scanner"
	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/panbanda/facet/pkg/config"
	"github.com/panbanda/facet/pkg/dataset"
	"github.com/panbanda/facet/pkg/loader"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/urfave/cli/v2"
)

// statusOrder is the display order for status breakdowns.
var statusOrder = []schedule.Status{
	schedule.StatusEarly,
	schedule.StatusOnTime,
	schedule.StatusDelayed,
	schedule.StatusPending,
}

// loadConfig resolves configuration: an explicit --config path wins,
// otherwise the usual search paths apply.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

// datasetPath returns the dataset argument, defaulting to the current
// directory so discovery kicks in.
func datasetPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// granularityFlag resolves the effective granularity from the flag and the
// config default.
func granularityFlag(c *cli.Context, cfg *config.Config) (schedule.Granularity, error) {
	if s := c.String("granularity"); s != "" {
		return schedule.ParseGranularity(s)
	}
	return cfg.Granularity(), nil
}

// loadDataset reads one dataset file, or discovers and merges every dataset
// file under a directory.
func loadDataset(ctx context.Context, path string, cfg *config.Config) (*dataset.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		spinner := progress.NewSpinner(fmt.Sprintf("Loading %s...", filepath.Base(path)))
		ds, err := loader.LoadFile(path, loader.WithRowCallback(spinner.Set))
		if err != nil {
			spinner.FinishError(err)
			return nil, err
		}
		spinner.FinishSuccess()
		return ds, nil
	}

	scan := scanner.NewScanner(cfg)
	files, err := scan.ScanDir(path)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	files, skipped := scanner.FilterBySize(files, cfg.MaxFileSize())
	if skipped > 0 {
		color.Yellow("Skipped %d files over %d MB", skipped, cfg.Exclude.MaxFileSizeMB)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no dataset files found under %s", path)
	}

	spinner := progress.NewSpinner(fmt.Sprintf("Loading %d files...", len(files)))
	ds, err := loader.LoadFiles(ctx, files, loader.WithRowCallback(func(int) { spinner.Tick() }))
	if err != nil {
		spinner.FinishError(err)
		return nil, err
	}
	spinner.FinishSuccess()
	return ds, nil
}

// annotateSchedule derives the status columns when the planned column is
// present. Datasets without schedule columns still decompose; the status
// summaries just stay empty.
func annotateSchedule(ds *dataset.Dataset, cols schedule.Columns, g schedule.Granularity) {
	if ds.HasColumn(cols.Planned) {
		_ = schedule.Annotate(ds, cols, g)
	}
}

// selectRows resolves --where expressions and the status shorthand into the
// surviving row set. A nil result means "all rows".
func selectRows(ds *dataset.Dataset, where []string, status string, g schedule.Granularity) ([]int, error) {
	filters, err := decomp.ParseFilters(where)
	if err != nil {
		return nil, err
	}
	if status != "" {
		filters = append(filters, decomp.StatusFilter(schedule.StatusColumn(g), status))
	}
	if len(filters) == 0 {
		return nil, nil
	}
	bm, err := decomp.ApplyFilters(ds, filters)
	if err != nil {
		return nil, err
	}
	return decomp.SelectRows(bm), nil
}

// newFormatter builds the output formatter from the flags and config.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	colored := cfg.Output.Color && !c.Bool("no-color")
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), colored)
}

// resultCache opens the configured cache, honoring --no-cache. A broken
// cache directory degrades to a disabled cache rather than failing the
// analysis.
func resultCache(c *cli.Context, cfg *config.Config) *cache.Cache {
	enabled := cfg.Cache.Enabled && !c.Bool("no-cache")
	dir, err := cache.DefaultDir(cfg.Cache.Dir)
	if err != nil {
		enabled = false
	}
	cc, err := cache.New(dir, cfg.Cache.TTL, enabled)
	if err != nil {
		cc, _ = cache.New("", 0, false)
	}
	return cc
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
