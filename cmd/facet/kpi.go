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
	"github.com/panbanda/facet/pkg/analyzer/kpi"
	"github.com/panbanda/facet/pkg/config"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/urfave/cli/v2"
)

func kpiCmd() *cli.Command {
	return &cli.Command{
		Name:      "kpi",
		Usage:     "Summarize schedule KPIs for the dataset",
		ArgsUsage: "[dataset]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Status granularity: day, week, or month",
			},
			&cli.StringSliceFlag{
				Name:    "where",
				Aliases: []string{"w"},
				Usage:   "Row filter, e.g. 'Region=North' (repeatable)",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Keep only rows with this schedule status",
			},
			&cli.IntFlag{
				Name:  "top-buckets",
				Usage: "Planned-bucket distribution size (default from config)",
			},
		},
		Action: runKPICmd,
	}
}

func runKPICmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := granularityFlag(c, cfg)
	if err != nil {
		return err
	}

	topBuckets := c.Int("top-buckets")
	if topBuckets == 0 {
		topBuckets = cfg.Analysis.TopBuckets
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	path := datasetPath(c)

	cc := resultCache(c, cfg)
	var contentHash string
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		contentHash, _ = cache.HashFile(path)
	}
	key := cache.Key("kpi",
		path,
		string(g),
		strings.Join(c.StringSlice("where"), ","),
		c.String("status"),
		strconv.Itoa(topBuckets),
	)

	if contentHash != "" {
		if data, ok := cc.GetWithHash(key, contentHash); ok {
			var summary kpi.Summary
			if err := json.Unmarshal(data, &summary); err == nil {
				if c.Bool("verbose") {
					color.Cyan("Using cached summary")
				}
				return outputKPI(formatter, &summary)
			}
		}
	}

	ctx := context.Background()
	summary, err := summarizeDataset(ctx, c, cfg, path, g, topBuckets)
	if err != nil {
		return err
	}

	if contentHash != "" {
		if data, err := json.Marshal(summary); err == nil {
			_ = cc.SetWithHash(key, contentHash, data)
		}
	}

	return outputKPI(formatter, summary)
}

// summarizeDataset loads, annotates, filters, and summarizes one dataset.
func summarizeDataset(ctx context.Context, c *cli.Context, cfg *config.Config, path string, g schedule.Granularity, topBuckets int) (*kpi.Summary, error) {
	ds, err := loadDataset(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	annotateSchedule(ds, cfg.Columns.Schedule(), g)

	rows, err := selectRows(ds, c.StringSlice("where"), c.String("status"), g)
	if err != nil {
		return nil, err
	}

	an := kpi.New(
		kpi.WithGranularity(g),
		kpi.WithScheduleColumns(cfg.Columns.Schedule()),
		kpi.WithTopBuckets(topBuckets),
	)
	if rows == nil {
		return an.Summarize(ctx, ds)
	}
	return an.SummarizeRows(ctx, ds, rows)
}

// outputKPI renders a KPI summary: raw for JSON and TOON, tables otherwise.
func outputKPI(formatter *output.Formatter, summary *kpi.Summary) error {
	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(summary)
	}

	var rows [][]string
	for _, s := range statusOrder {
		count := summary.Count(s)
		pct := 0.0
		if summary.TotalRows > 0 {
			pct = float64(count) / float64(summary.TotalRows) * 100
		}
		name := string(s)
		if formatter.Colored() {
			name = output.StatusColor(s, name)
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", count), fmt.Sprintf("%.1f%%", pct)})
	}

	table := output.NewTable(
		fmt.Sprintf("Schedule KPIs (%s granularity)", summary.Granularity),
		[]string{"Status", "Rows", "Share"},
		rows,
		[]string{
			fmt.Sprintf("Total: %d", summary.TotalRows),
			fmt.Sprintf("Avg Delay: %.1fd", summary.AvgDelayDays),
			fmt.Sprintf("Max: %.1fd", summary.MaxDelayDays),
		},
		summary,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if formatter.Format() == output.FormatText {
		fmt.Fprintf(formatter.Writer(),
			"\nDelay percentiles: p50 %.1fd, p90 %.1fd; early deliveries average %.1fd ahead\n",
			summary.P50DelayDays, summary.P90DelayDays, summary.AvgEarlyDays)
	}

	if len(summary.TopBuckets) > 0 {
		if err := formatter.Output(bucketTable(summary)); err != nil {
			return err
		}
	}
	return nil
}

// bucketTable renders the planned-bucket distribution of a summary.
func bucketTable(summary *kpi.Summary) *output.Table {
	var rows [][]string
	for _, b := range summary.TopBuckets {
		rows = append(rows, []string{b.Bucket, fmt.Sprintf("%d", b.Count)})
	}
	return output.NewTable(
		fmt.Sprintf("Top Planned Buckets (%s)", summary.Granularity),
		[]string{"Bucket", "Rows"},
		rows,
		nil,
		summary.TopBuckets,
	)
}

func bucketsCmd() *cli.Command {
	return &cli.Command{
		Name:      "buckets",
		Usage:     "Show the planned-bucket distribution of the dataset",
		ArgsUsage: "[dataset]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Bucket granularity: day, week, or month",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of buckets to show (default from config)",
			},
		},
		Action: runBucketsCmd,
	}
}

func runBucketsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := granularityFlag(c, cfg)
	if err != nil {
		return err
	}

	top := c.Int("top")
	if top == 0 {
		top = cfg.Analysis.TopBuckets
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	ctx := context.Background()
	ds, err := loadDataset(ctx, datasetPath(c), cfg)
	if err != nil {
		return err
	}
	annotateSchedule(ds, cfg.Columns.Schedule(), g)

	an := kpi.New(
		kpi.WithGranularity(g),
		kpi.WithScheduleColumns(cfg.Columns.Schedule()),
		kpi.WithTopBuckets(top),
	)
	summary, err := an.Summarize(ctx, ds)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(summary.TopBuckets)
	}
	return formatter.Output(bucketTable(summary))
}
