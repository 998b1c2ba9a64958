package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/panbanda/facet/pkg/config"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage facet configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write a commented default config file",
				ArgsUsage: "[path]",
				Action:    runConfigInitCmd,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: runConfigShowCmd,
			},
			{
				Name:      "validate",
				Usage:     "Check a config file for invalid values",
				ArgsUsage: "[path]",
				Action:    runConfigValidateCmd,
			},
		},
	}
}

func runConfigInitCmd(c *cli.Context) error {
	path := ".facet.toml"
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := config.DefaultConfig().EncodeTOML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	color.Green("Wrote %s", path)
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := cfg.EncodeTOML()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runConfigValidateCmd(c *cli.Context) error {
	path := c.String("config")
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	if path == "" {
		return fmt.Errorf("pass a config file or set --config")
	}
	if _, err := config.Load(path); err != nil {
		return err
	}
	color.Green("%s: valid", path)
	return nil
}
