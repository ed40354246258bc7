package main

import (
	"fmt"

	"github.com/panbanda/nearclone/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio that lets LLM clients run near-duplicate
scans.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "nearclone": {
        "command": "nearclone",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - find_near_duplicates   Clusters of near-identical files
  - list_profiles          Named threshold profiles`,
		Action: func(c *cli.Context) error {
			return mcpserver.NewServer(version).Run(c.Context)
		},
	}
}

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:   "manifest",
		Usage:  "Print the MCP registry server.json",
		Hidden: true,
		Action: func(c *cli.Context) error {
			data, err := mcpserver.GenerateManifest(version)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, string(data))
			return err
		},
	}
}
