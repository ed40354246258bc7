package fileproc

import (
	"context"

	"github.com/panbanda/nearclone/pkg/analyzer"
	"github.com/panbanda/nearclone/pkg/source"
)

// MapSourceFiles reads each file from src inside its worker and hands the
// content to fn. Read failures and fn failures are both reported per path.
// Progress is tracked via context using analyzer.WithTracker.
func MapSourceFiles[T any](
	ctx context.Context,
	files []string,
	src source.ContentSource,
	maxWorkers int,
	fn func(path string, content []byte) (T, error),
) ([]Indexed[T], *ProcessingErrors, error) {
	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Begin(analyzer.StageLoad, len(files))
	}

	return ForEachFile(ctx, files, maxWorkers, func(path string) (T, error) {
		if tracker != nil {
			defer tracker.Tick(path)
		}

		content, err := src.Read(path)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(path, content)
	}, nil)
}
