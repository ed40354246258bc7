package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/nearclone/pkg/watch"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Rescan whenever candidate files change",
		ArgsUsage: "[path...]",
		Flags: append(scanFlags(), &cli.DurationFlag{
			Name:  "debounce",
			Value: watch.DefaultDebounce,
			Usage: "Quiet period before a batch of changes triggers a rescan",
		}),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}

	paths := getPaths(c)
	roots := paths
	if len(roots) == 0 {
		roots = cfg.Scan.Roots
	}

	rescan := func() {
		result, err := runScan(c, cfg, paths)
		if err == nil {
			err = writeReport(c, cfg, result)
		}
		if err != nil {
			color.Red("Error: %v", err)
		}
	}

	w, err := watch.NewWatcher(roots, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	w.OnChange(func(changed []string) {
		names := make([]string, 0, len(changed))
		for _, p := range changed {
			names = append(names, filepath.Base(p))
		}
		color.Yellow("\nChanged: %s", strings.Join(names, ", "))
		fmt.Println(strings.Repeat("-", 40))
		rescan()
	})
	w.OnError(func(err error) {
		color.Red("Watch error: %v", err)
	})

	rescan()
	color.Cyan("Watching %s for changes. Press Ctrl+C to stop.", strings.Join(roots, ", "))

	if err := w.Start(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
