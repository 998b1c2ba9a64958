package main

import (
	"context"
	"fmt"
	"os"

	"github.com/panbanda/facet/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes facet's dataset
analysis as tools LLM clients can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "facet": {
        "command": "facet",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - build_tree     Decomposition tree over hierarchy columns
  - kpi_summary    Schedule KPIs for the dataset
  - classify_rows  Per-row schedule status and delay
  - list_columns   Column profile of the dataset`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the server.json registry manifest and exit",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	server := mcpserver.NewServer(version)
	return server.Run(context.Background())
}
