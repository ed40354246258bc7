package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errMatchesFound is returned by scan --fail-on-match when clusters exist.
var errMatchesFound = errors.New("near-duplicate files found")

func newApp() *cli.App {
	return &cli.App{
		Name:     "nearclone",
		Usage:    "Find near-duplicate source files",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `nearclone fingerprints source files after collapsing comments, literals
and identifiers, then reports files that are near-identical copies of
each other and groups them into clusters.

Profiles:
  strict   very close copies (hamming <= 2, overlap >= 0.98)
  broad    edited copies (hamming <= 12, overlap >= 0.80)`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"NEARCLONE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: startProfiling,
		After:  stopProfiling,
		Commands: []*cli.Command{
			scanCmd(),
			watchCmd(),
			profilesCmd(),
			configCmd(),
			initCmd(),
			mcpCmd(),
			manifestCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errMatchesFound):
		os.Exit(2)
	default:
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func startProfiling(c *cli.Context) error {
	prefix := c.String("pprof")
	if prefix == "" {
		return nil
	}
	cpuFile, err := os.Create(prefix + ".cpu.pprof")
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	c.App.Metadata["pprofCPU"] = cpuFile
	return nil
}

func stopProfiling(c *cli.Context) error {
	prefix := c.String("pprof")
	if prefix == "" {
		return nil
	}

	pprof.StopCPUProfile()
	if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
		cpuFile.Close()
		color.Green("CPU profile written to %s.cpu.pprof", prefix)
	}

	memFile, err := os.Create(prefix + ".mem.pprof")
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	color.Green("Memory profile written to %s.mem.pprof", prefix)
	return nil
}

// getPaths returns paths from positional args. No args means the
// configured roots.
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return nil
}
