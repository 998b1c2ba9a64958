package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/panbanda/facet/internal/output"
	"github.com/panbanda/facet/pkg/schedule"
	"github.com/urfave/cli/v2"
)

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Classify each row against its planned and actual dates",
		ArgsUsage: "[dataset]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "granularity",
				Aliases: []string{"g"},
				Usage:   "Status granularity: day, week, or month",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Show only rows with this status",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: 50,
				Usage: "Maximum rows to list (0 for all)",
			},
		},
		Action: runStatusCmd,
	}
}

// rowStatus is the per-row classification record behind the status table.
type rowStatus struct {
	Row       int             `json:"row" toon:"row"`
	Planned   string          `json:"planned" toon:"planned"`
	Actual    string          `json:"actual,omitempty" toon:"actual,omitempty"`
	Status    schedule.Status `json:"status" toon:"status"`
	DelayDays float64         `json:"delay_days,omitempty" toon:"delay_days,omitempty"`
}

func runStatusCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := granularityFlag(c, cfg)
	if err != nil {
		return err
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

	statuses := schedule.RowStatuses(ds, cfg.Columns.Schedule(), g)
	if statuses == nil {
		return fmt.Errorf("planned column %q not found in dataset", cfg.Columns.Planned)
	}

	filter := c.String("status")
	limit := c.Int("limit")

	var listed []rowStatus
	var rows [][]string
	for i, s := range statuses {
		if filter != "" && !strings.EqualFold(string(s), filter) {
			continue
		}
		if limit > 0 && len(listed) >= limit {
			break
		}

		rs := rowStatus{
			Row:     i,
			Planned: ds.Value(i, cfg.Columns.Planned).DisplayString(),
			Actual:  ds.Value(i, cfg.Columns.Actual).DisplayString(),
			Status:  s,
		}
		delayStr := ""
		if delay, ok := schedule.RowDelay(ds, cfg.Columns.Schedule(), i); ok {
			rs.DelayDays = delay
			delayStr = fmt.Sprintf("%.0f", delay)
		}
		listed = append(listed, rs)

		name := string(s)
		if formatter.Colored() {
			name = output.StatusColor(s, name)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", rs.Row),
			rs.Planned,
			rs.Actual,
			name,
			delayStr,
		})
	}

	table := output.NewTable(
		fmt.Sprintf("Row Schedule Status (%s granularity)", g),
		[]string{"Row", "Planned", "Actual", "Status", "Delay (days)"},
		rows,
		[]string{fmt.Sprintf("Shown: %d of %d rows", len(listed), ds.NumRows())},
		listed,
	)
	return formatter.Output(table)
}

func columnsCmd() *cli.Command {
	return &cli.Command{
		Name:      "columns",
		Usage:     "Profile the dataset columns",
		ArgsUsage: "[dataset]",
		Action:    runColumnsCmd,
	}
}

func runColumnsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
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

	profiles := ds.Profile()
	var rows [][]string
	for _, p := range profiles {
		rows = append(rows, []string{
			p.Name,
			p.Kind,
			fmt.Sprintf("%d", p.Distinct),
			fmt.Sprintf("%d", p.Nulls),
			truncate(strings.Join(p.Examples, ", "), 50),
		})
	}

	table := output.NewTable(
		fmt.Sprintf("Columns (%d rows)", ds.NumRows()),
		[]string{"Column", "Kind", "Distinct", "Nulls", "Examples"},
		rows,
		nil,
		profiles,
	)
	return formatter.Output(table)
}
