package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/nearclone/internal/output"
	"github.com/panbanda/nearclone/internal/progress"
	"github.com/panbanda/nearclone/internal/report"
	"github.com/panbanda/nearclone/internal/service/scan"
	"github.com/panbanda/nearclone/pkg/config"
	"github.com/urfave/cli/v2"
)

// scanFlags are shared by scan and watch.
func scanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Threshold profile: strict or broad",
		},
		&cli.IntFlag{
			Name:  "max-hamming",
			Usage: "Maximum SimHash hamming distance (0-64)",
		},
		&cli.Float64Flag{
			Name:  "min-overlap",
			Usage: "Minimum shingle overlap (0.0-1.0)",
		},
		&cli.IntFlag{
			Name:  "shingle-k",
			Usage: "Shingle width in tokens (>= 3)",
		},
		&cli.Float64Flag{
			Name:  "min-size-ratio",
			Usage: "Minimum raw size ratio between paired files (0.0-1.0)",
		},
		&cli.IntFlag{
			Name:  "min-length",
			Usage: "Exclude files whose normalized text is shorter than this",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Worker pool size (0 = 4x CPUs)",
		},
		&cli.Int64Flag{
			Name:  "max-file-size",
			Usage: "Skip files larger than this many bytes (0 = no limit)",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Only compare files matching these gitignore-style patterns (relative to the scan root)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Skip files matching these gitignore-style patterns",
		},
		&cli.BoolFlag{
			Name:  "no-gitignore",
			Usage: "Do not honour .gitignore files",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "Show only the top N clusters and pairs in text and markdown (0 = all)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "List skipped and excluded files and print timings",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Disable progress bars",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
	}
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Aliases:   []string{"s"},
		Usage:     "Find near-duplicate files",
		ArgsUsage: "[path...]",
		Flags: append(scanFlags(), &cli.BoolFlag{
			Name:  "fail-on-match",
			Usage: "Exit with status 2 when any cluster is found",
		}),
		Action: runScanCmd,
	}
}

// loadConfig reads the config file named by --config or found in the
// working directory, then layers command-line flags over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	if err := applyScanFlags(c, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyScanFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("profile") {
		if err := cfg.ApplyProfile(c.String("profile")); err != nil {
			return err
		}
	}
	if c.IsSet("max-hamming") {
		cfg.Thresholds.MaxHamming = c.Int("max-hamming")
	}
	if c.IsSet("min-overlap") {
		cfg.Thresholds.MinOverlap = c.Float64("min-overlap")
	}
	if c.IsSet("shingle-k") {
		cfg.Thresholds.ShingleK = c.Int("shingle-k")
	}
	if c.IsSet("min-size-ratio") {
		cfg.Thresholds.MinSizeRatio = c.Float64("min-size-ratio")
	}
	if c.IsSet("min-length") {
		cfg.Thresholds.MinLength = c.Int("min-length")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("max-file-size") {
		cfg.Scan.MaxFileSize = c.Int64("max-file-size")
	}
	if c.IsSet("include") {
		cfg.Scan.Include = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, c.StringSlice("exclude")...)
	}
	if c.Bool("no-gitignore") {
		cfg.Scan.Gitignore = false
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("top") {
		cfg.Output.Top = c.Int("top")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	return nil
}

func runScanCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}

	result, err := runScan(c, cfg, getPaths(c))
	if err != nil {
		return err
	}

	if err := writeReport(c, cfg, result); err != nil {
		return err
	}

	if c.Bool("fail-on-match") && len(result.Report.Clusters) > 0 {
		return errMatchesFound
	}
	return nil
}

// runScan collects and analyzes files, drawing progress on stderr unless
// --quiet is set.
func runScan(c *cli.Context, cfg *config.Config, paths []string) (*scan.Result, error) {
	var stderr io.Writer = os.Stderr
	if c.Bool("quiet") {
		stderr = io.Discard
	}

	stages := progress.NewStages(stderr)
	svc := scan.New(scan.WithConfig(cfg), scan.WithProgress(stages.Update))

	start := time.Now()
	spinner := progress.NewSpinner(stderr, "Collecting files...")
	files, err := svc.Collect(paths)
	if err != nil {
		spinner.FinishError(err)
		return nil, err
	}
	spinner.FinishSuccess()
	collectTime := time.Since(start)

	if len(files) == 0 {
		color.New(color.FgYellow).Fprintln(stderr, "No source files found")
	}

	result, err := svc.Analyze(c.Context, files)
	stages.Finish()
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	if c.Bool("verbose") {
		color.New(color.FgCyan).Fprintf(os.Stderr, "Collected %d files in %s, analyzed in %s\n",
			len(files), collectTime.Round(time.Millisecond), result.Duration.Round(time.Millisecond))
	}
	return result, nil
}

func writeReport(c *cli.Context, cfg *config.Config, result *scan.Result) error {
	formatter, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(report.New(result.Report, report.Options{
		Top:       cfg.Output.Top,
		Verbose:   c.Bool("verbose"),
		PathWidth: 60,
	}))
}
