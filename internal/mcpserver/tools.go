package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/nearclone/internal/output"
	"github.com/panbanda/nearclone/internal/report"
	"github.com/panbanda/nearclone/internal/service/scan"
	"github.com/panbanda/nearclone/pkg/analyzer/neardup"
	"github.com/panbanda/nearclone/pkg/config"
)

// defaultTop bounds clusters and pairs returned to the client.
const defaultTop = 20

// NearDuplicatesInput is the input of find_near_duplicates.
type NearDuplicatesInput struct {
	Paths        []string `json:"paths,omitempty" jsonschema:"Files or directories to scan. Defaults to current directory if empty."`
	Format       string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
	Profile      string   `json:"profile,omitempty" jsonschema:"Threshold profile: strict (default) or broad."`
	MaxHamming   *int     `json:"max_hamming,omitempty" jsonschema:"Override the maximum SimHash hamming distance (0-64)."`
	MinOverlap   *float64 `json:"min_overlap,omitempty" jsonschema:"Override the minimum shingle overlap (0.0-1.0)."`
	ShingleK     *int     `json:"shingle_k,omitempty" jsonschema:"Override the shingle width in tokens (>= 3)."`
	MinSizeRatio *float64 `json:"min_size_ratio,omitempty" jsonschema:"Override the minimum raw size ratio (0.0-1.0)."`
	Top          int      `json:"top,omitempty" jsonschema:"Maximum clusters and pairs returned. Default 20."`
	Include      []string `json:"include,omitempty" jsonschema:"Gitignore-style patterns, relative to each scanned path, limiting which files enter comparison."`
	Exclude      []string `json:"exclude,omitempty" jsonschema:"Gitignore-style patterns removed from collection."`
}

// ListProfilesInput is the (empty) input of list_profiles.
type ListProfilesInput struct{}

// nearDuplicatesResult is the compact view returned to MCP clients.
type nearDuplicatesResult struct {
	Profile    string                 `json:"profile"`
	Thresholds config.ThresholdConfig `json:"thresholds"`
	Files      int                    `json:"files"`
	Candidates int                    `json:"candidates"`
	Skipped    int                    `json:"skipped"`
	Summary    neardup.Summary        `json:"summary"`
	Clusters   []neardup.Cluster      `json:"clusters"`
	Pairs      []pairView             `json:"pairs"`
}

type pairView struct {
	PathA      string  `json:"path_a"`
	PathB      string  `json:"path_b"`
	Distance   int     `json:"distance"`
	Overlap    float64 `json:"overlap"`
	Similarity float64 `json:"similarity"`
	Exact      bool    `json:"exact,omitempty"`
}

type profileView struct {
	Name         string  `json:"name"`
	MaxHamming   int     `json:"max_hamming"`
	MinOverlap   float64 `json:"min_overlap"`
	ShingleK     int     `json:"shingle_k"`
	MinSizeRatio float64 `json:"min_size_ratio"`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	var text string
	switch format {
	case output.FormatJSON:
		var buf bytes.Buffer
		if err := output.WriteJSON(&buf, data); err != nil {
			return nil, nil, err
		}
		text = buf.String()
	default:
		out, err := output.MarshalTOON(data)
		if err != nil {
			return nil, nil, err
		}
		text = out
	}
	return textResult(text), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// buildConfig layers the tool input over the discovered config file.
func buildConfig(input NearDuplicatesInput) (*config.Config, error) {
	res, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg := res.Config

	if input.Profile != "" {
		if err := cfg.ApplyProfile(input.Profile); err != nil {
			return nil, err
		}
	}
	if input.MaxHamming != nil {
		cfg.Thresholds.MaxHamming = *input.MaxHamming
	}
	if input.MinOverlap != nil {
		cfg.Thresholds.MinOverlap = *input.MinOverlap
	}
	if input.ShingleK != nil {
		cfg.Thresholds.ShingleK = *input.ShingleK
	}
	if input.MinSizeRatio != nil {
		cfg.Thresholds.MinSizeRatio = *input.MinSizeRatio
	}
	if len(input.Include) > 0 {
		cfg.Scan.Include = input.Include
	}
	cfg.Scan.Exclude = append(cfg.Scan.Exclude, input.Exclude...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func handleFindNearDuplicates(ctx context.Context, req *mcp.CallToolRequest, input NearDuplicatesInput) (*mcp.CallToolResult, any, error) {
	cfg, err := buildConfig(input)
	if err != nil {
		return toolError(err.Error())
	}

	res, err := scan.New(scan.WithConfig(cfg)).Run(ctx, getPaths(input.Paths))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		return toolError(err.Error())
	}
	if len(res.Files) == 0 {
		return toolError("no source files found")
	}

	top := input.Top
	if top <= 0 {
		top = defaultTop
	}

	format := getFormat(input.Format)
	if format == output.FormatMarkdown {
		var buf bytes.Buffer
		if err := report.New(res.Report, report.Options{Top: top}).RenderMarkdown(&buf); err != nil {
			return nil, nil, err
		}
		return textResult(buf.String()), nil, nil
	}

	return toolResult(compact(res.Report, top), format)
}

func compact(r *neardup.Report, top int) nearDuplicatesResult {
	clusters := r.Clusters
	if len(clusters) > top {
		clusters = clusters[:top]
	}
	pairs := r.Pairs
	if len(pairs) > top {
		pairs = pairs[:top]
	}

	views := make([]pairView, len(pairs))
	for i, p := range pairs {
		views[i] = pairView{
			PathA:      p.PathA,
			PathB:      p.PathB,
			Distance:   p.Distance,
			Overlap:    p.Overlap,
			Similarity: p.Similarity,
			Exact:      p.Exact,
		}
	}

	return nearDuplicatesResult{
		Profile:    r.Profile,
		Thresholds: r.Thresholds,
		Files:      r.TotalFiles,
		Candidates: r.TotalCandidates,
		Skipped:    len(r.Skipped),
		Summary:    r.Summary,
		Clusters:   clusters,
		Pairs:      views,
	}
}

func handleListProfiles(ctx context.Context, req *mcp.CallToolRequest, input ListProfilesInput) (*mcp.CallToolResult, any, error) {
	names := config.ProfileNames()
	profiles := make([]profileView, 0, len(names))
	for _, name := range names {
		t, _ := config.Profile(name)
		profiles = append(profiles, profileView{
			Name:         name,
			MaxHamming:   t.MaxHamming,
			MinOverlap:   t.MinOverlap,
			ShingleK:     t.ShingleK,
			MinSizeRatio: t.MinSizeRatio,
		})
	}
	return toolResult(map[string]any{"profiles": profiles}, output.FormatTOON)
}
