package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/nearclone/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a nearclone.toml with the default settings",
		Description: `Creates nearclone.toml in the current directory. Use --output for a
different location.

Examples:
  nearclone init
  nearclone init -o .nearclone/nearclone.toml
  nearclone init --profile broad --force`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "nearclone.toml",
				Usage:   "Output file path",
			},
			&cli.StringFlag{
				Name:  "profile",
				Value: config.ProfileStrict,
				Usage: "Profile whose thresholds seed the file",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig(c.String("profile"))
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", outputPath)
	return nil
}

func generateDefaultConfig(profile string) (string, error) {
	cfg := config.DefaultConfig()
	if err := cfg.ApplyProfile(profile); err != nil {
		return "", err
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# nearclone configuration\n")
	buf.WriteString("# Explicit [thresholds] keys override the named profile.\n\n")
	buf.Write(content)
	return buf.String(), nil
}
