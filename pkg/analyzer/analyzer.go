// Package analyzer holds the contracts shared by scan engines and the
// processing layer.
package analyzer

import "context"

// FileAnalyzer scans a list of files and produces a result of type T.
type FileAnalyzer[T any] interface {
	// Analyze processes files. Cancelling ctx aborts the scan.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
