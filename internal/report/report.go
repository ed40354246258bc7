// Package report turns a near-duplicate scan result into a renderable
// document for the output formatter.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/panbanda/nearclone/internal/output"
	"github.com/panbanda/nearclone/pkg/analyzer/neardup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Options controls what the human-readable views include. JSON and TOON
// always carry the full report.
type Options struct {
	// Top limits the clusters and pairs listed (0 = all).
	Top int
	// Verbose lists skipped and excluded files.
	Verbose bool
	// PathWidth truncates long paths in text tables (0 = never).
	PathWidth int
}

// NearDuplicates renders a neardup.Report.
type NearDuplicates struct {
	report  *neardup.Report
	opts    Options
	printer *message.Printer
}

var _ output.Renderable = (*NearDuplicates)(nil)

// New wraps r for rendering.
func New(r *neardup.Report, opts Options) *NearDuplicates {
	return &NearDuplicates{
		report:  r,
		opts:    opts,
		printer: message.NewPrinter(language.English),
	}
}

func (n *NearDuplicates) RenderData() any {
	return n.report
}

func (n *NearDuplicates) RenderText(w io.Writer, colored bool) error {
	return n.document(colored, n.opts.PathWidth).RenderText(w, colored)
}

func (n *NearDuplicates) RenderMarkdown(w io.Writer) error {
	return n.document(false, 0).RenderMarkdown(w)
}

func (n *NearDuplicates) document(colored bool, pathWidth int) *output.Document {
	doc := &output.Document{
		Title: "Near-Duplicate Files",
		Parts: []output.Renderable{n.summary()},
	}

	if len(n.report.Clusters) == 0 {
		doc.Parts = append(doc.Parts, &output.Section{Content: "No near-duplicate files found."})
	} else {
		doc.Parts = append(doc.Parts, n.clusterTable(pathWidth), n.pairTable(colored, pathWidth))
	}

	if n.opts.Verbose {
		if len(n.report.Skipped) > 0 {
			doc.Parts = append(doc.Parts, n.skippedTable(pathWidth))
		}
		if len(n.report.Excluded) > 0 {
			doc.Parts = append(doc.Parts, n.excludedTable(pathWidth))
		}
	}
	return doc
}

func (n *NearDuplicates) num(v int) string {
	return n.printer.Sprintf("%d", v)
}

func (n *NearDuplicates) summary() *output.Section {
	r := n.report
	s := r.Summary
	th := r.Thresholds

	profile := "custom"
	if r.Profile != "" {
		profile = cases.Title(language.English).String(r.Profile)
	}

	lines := []string{
		fmt.Sprintf("Files scanned:  %s", n.num(r.TotalFiles)),
		fmt.Sprintf("Candidates:     %s", n.num(r.TotalCandidates)),
		fmt.Sprintf("Profile:        %s (max hamming %d, min overlap %.2f, k %d, min size ratio %.2f)",
			profile, th.MaxHamming, th.MinOverlap, th.ShingleK, th.MinSizeRatio),
		fmt.Sprintf("Pairs:          %s (%s exact)", n.num(s.TotalPairs), n.num(s.ExactPairs)),
		fmt.Sprintf("Clusters:       %s (%s files, largest %s)",
			n.num(s.TotalClusters), n.num(s.FilesInClusters), n.num(s.LargestCluster)),
	}
	if s.TotalPairs > 0 {
		lines = append(lines, fmt.Sprintf("Similarity:     mean %.3f, p50 %.3f, p95 %.3f, overlap stddev %.3f",
			s.MeanSimilarity, s.P50Similarity, s.P95Similarity, s.StdDevOverlap))
	}
	if len(r.Skipped) > 0 || len(r.Excluded) > 0 {
		lines = append(lines, fmt.Sprintf("Skipped:        %s unreadable, %s excluded",
			n.num(len(r.Skipped)), n.num(len(r.Excluded))))
	}

	return &output.Section{Title: "Summary", Content: strings.Join(lines, "\n")}
}

func (n *NearDuplicates) clusterTable(pathWidth int) *output.Table {
	clusters := limit(n.report.Clusters, n.opts.Top)

	var rows [][]string
	for i, c := range clusters {
		for j, member := range c.Members {
			if j == 0 {
				rows = append(rows, []string{
					n.num(i + 1),
					n.num(c.Size()),
					fmt.Sprintf("%.3f", c.MeanSimilarity),
					c.ID,
					shortenPath(member, pathWidth),
				})
				continue
			}
			rows = append(rows, []string{"", "", "", "", shortenPath(member, pathWidth)})
		}
	}

	return output.NewTable(
		fmt.Sprintf("Clusters (%s of %s)", n.num(len(clusters)), n.num(len(n.report.Clusters))),
		[]string{"#", "Size", "Mean Sim", "ID", "Members"},
		rows, nil, nil,
	)
}

func (n *NearDuplicates) pairTable(colored bool, pathWidth int) *output.Table {
	pairs := limit(n.report.Pairs, n.opts.Top)

	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		sim := fmt.Sprintf("%.3f", p.Similarity)
		if colored {
			sim = output.SimilarityColor(p.Similarity, sim)
		}
		if p.Exact {
			sim += " (exact)"
		}
		rows = append(rows, []string{
			shortenPath(p.PathA, pathWidth),
			shortenPath(p.PathB, pathWidth),
			fmt.Sprintf("%d", p.Distance),
			fmt.Sprintf("%.3f", p.Overlap),
			fmt.Sprintf("%.2f", p.SizeRatio),
			sim,
		})
	}

	return output.NewTable(
		fmt.Sprintf("Pairs (%s of %s)", n.num(len(pairs)), n.num(len(n.report.Pairs))),
		[]string{"File A", "File B", "Distance", "Overlap", "Size Ratio", "Similarity"},
		rows, nil, nil,
	)
}

func (n *NearDuplicates) skippedTable(pathWidth int) *output.Table {
	rows := make([][]string, 0, len(n.report.Skipped))
	for _, s := range n.report.Skipped {
		rows = append(rows, []string{shortenPath(s.Path, pathWidth), s.Reason})
	}
	return output.NewTable("Skipped Files", []string{"Path", "Reason"}, rows, nil, nil)
}

func (n *NearDuplicates) excludedTable(pathWidth int) *output.Table {
	rows := make([][]string, 0, len(n.report.Excluded))
	for _, e := range n.report.Excluded {
		rows = append(rows, []string{shortenPath(e.Path, pathWidth), e.Reason})
	}
	return output.NewTable("Excluded Files", []string{"Path", "Reason"}, rows, nil, nil)
}

func limit[T any](items []T, top int) []T {
	if top > 0 && len(items) > top {
		return items[:top]
	}
	return items
}

// shortenPath keeps the file name and as much of the trailing directory as
// fits in width, replacing the rest with "...".
func shortenPath(path string, width int) string {
	if width <= 0 || len(path) <= width {
		return path
	}
	if width <= 3 {
		return path[len(path)-width:]
	}

	parts := strings.Split(path, "/")
	filename := parts[len(parts)-1]
	if len(parts) == 1 || len(filename) >= width-4 {
		return "..." + path[len(path)-width+3:]
	}

	prefix := strings.Join(parts[:len(parts)-1], "/")
	remaining := width - len(filename) - 5
	if remaining < 0 {
		remaining = 0
	}
	if len(prefix) > remaining {
		prefix = prefix[len(prefix)-remaining:]
	}
	return ".../" + prefix + "/" + filename
}
