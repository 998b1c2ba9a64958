package main

import (
	"context"
	"fmt"

	"github.com/panbanda/facet/internal/output"
	"github.com/panbanda/facet/internal/progress"
	"github.com/panbanda/facet/pkg/analyzer"
	"github.com/panbanda/facet/pkg/analyzer/trend"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/urfave/cli/v2"
)

func trendCmd() *cli.Command {
	return &cli.Command{
		Name:      "trend",
		Usage:     "Track KPI history of a dataset file across git revisions",
		ArgsUsage: "<file> [repo]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "History window in days (default from config)",
			},
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Status granularity: day, week, or month",
			},
		},
		Action: runTrendCmd,
	}
}

func runTrendCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("trend requires a tracked dataset file argument")
	}
	file := c.Args().Get(0)
	repoPath := "."
	if c.Args().Len() > 1 {
		repoPath = c.Args().Get(1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := granularityFlag(c, cfg)
	if err != nil {
		return err
	}

	days := c.Int("days")
	if days == 0 {
		days = cfg.Analysis.TrendDays
	}

	spinner := progress.NewSpinner("Walking dataset history...")
	tracker := analyzer.NewTracker(func(current, total int, item string) { spinner.Tick() })
	ctx := analyzer.WithTracker(context.Background(), tracker)

	an := trend.New(
		trend.WithDays(days),
		trend.WithGranularity(g),
		trend.WithScheduleColumns(cfg.Columns.Schedule()),
	)
	defer an.Close()

	analysis, err := an.Analyze(ctx, repoPath, file)
	if err != nil {
		spinner.FinishError(err)
		return fmt.Errorf("trend analysis failed (is this a git repository?): %w", err)
	}
	spinner.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	for _, p := range analysis.Points {
		sha := p.SHA
		if len(sha) > 8 {
			sha = sha[:8]
		}
		if p.LoadError != "" {
			rows = append(rows, []string{
				sha, p.Date.Format("2006-01-02"), "-", "-", "-",
				truncate(p.LoadError, 40),
			})
			continue
		}
		rows = append(rows, []string{
			sha,
			p.Date.Format("2006-01-02"),
			fmt.Sprintf("%d", p.TotalRows),
			fmt.Sprintf("%d", p.StatusCounts[schedule.StatusDelayed]),
			fmt.Sprintf("%.1f", p.AvgDelayDays),
			"",
		})
	}

	footer := []string{
		fmt.Sprintf("Revisions: %d", len(analysis.Points)),
		"", "", "", "",
		fmt.Sprintf("Slope: %+.3f d/day", analysis.DelaySlope),
	}
	if analysis.Delta != nil {
		footer[2] = fmt.Sprintf("Rows: %+d", analysis.Delta.TotalRows)
		footer[4] = fmt.Sprintf("Delay: %+.1fd", analysis.Delta.AvgDelayDays)
	}

	table := output.NewTable(
		fmt.Sprintf("KPI Trend (%s, last %d days)", analysis.File, analysis.PeriodDays),
		[]string{"Revision", "Date", "Rows", "Delayed", "Avg Delay", "Note"},
		rows,
		footer,
		analysis,
	)
	return formatter.Output(table)
}
