package main

import (
	"fmt"

	"github.com/panbanda/nearclone/internal/output"
	"github.com/panbanda/nearclone/pkg/config"
	"github.com/urfave/cli/v2"
)

func profilesCmd() *cli.Command {
	return &cli.Command{
		Name:  "profiles",
		Usage: "List the threshold profiles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
		},
		Action: runProfilesCmd,
	}
}

func runProfilesCmd(c *cli.Context) error {
	names := config.ProfileNames()
	rows := make([][]string, 0, len(names))
	data := make(map[string]config.ThresholdConfig, len(names))
	for _, name := range names {
		t, _ := config.Profile(name)
		data[name] = t
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", t.MaxHamming),
			fmt.Sprintf("%.2f", t.MinOverlap),
			fmt.Sprintf("%d", t.ShingleK),
			fmt.Sprintf("%.2f", t.MinSizeRatio),
		})
	}

	table := output.NewTable(
		"Profiles",
		[]string{"Name", "Max Hamming", "Min Overlap", "Shingle K", "Min Size Ratio"},
		rows, nil, data,
	)
	return output.NewWriterFormatter(output.ParseFormat(c.String("format")), c.App.Writer, false).Output(table)
}
