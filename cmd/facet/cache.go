package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/facet/internal/cache"
	"github.com/panbanda/facet/internal/output"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage cached analysis results",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count and size",
				Action: runCacheStatsCmd,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached results",
				Action: runCacheClearCmd,
			},
		},
	}
}

func runCacheStatsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cc := resultCache(c, cfg)

	stats, err := cc.GetStats()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(stats)
	}

	rows := [][]string{
		{"Directory", cc.Dir()},
		{"Entries", fmt.Sprintf("%d", stats.Entries)},
		{"Total size", fmt.Sprintf("%d bytes", stats.TotalSize)},
	}
	if stats.Entries > 0 {
		rows = append(rows,
			[]string{"Oldest entry", stats.OldestAge.Round(time.Second).String()},
			[]string{"Newest entry", stats.NewestAge.Round(time.Second).String()},
		)
	}
	return formatter.Output(output.NewTable("Cache", []string{"Field", "Value"}, rows, nil, stats))
}

func runCacheClearCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dir, err := cache.DefaultDir(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	cc, err := cache.New(dir, cfg.Cache.TTL, true)
	if err != nil {
		return err
	}
	if err := cc.Clear(); err != nil {
		return err
	}
	color.Green("Cleared cache at %s", dir)
	return nil
}
