package blogqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	blogservice "github.com/mozilla/mozilla-ignite/app/modules/blog/application"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/riverqueue/river"
)

// ImportJob refreshes every configured feed.
type ImportJob struct{}

func (ImportJob) Kind() string { return "blog_import" }

type Importer interface {
	ImportAll(ctx context.Context) ([]blogservice.ImportResult, error)
}

type ImportWorker struct {
	river.WorkerDefaults[ImportJob]
	importer Importer
	logger   *slog.Logger
}

func NewImportWorker(importer Importer, logger *slog.Logger) *ImportWorker {
	return &ImportWorker{importer: importer, logger: logger}
}

// Work fails the job when any feed failed so River retries it. Feeds that
// did import are unaffected by the retry.
func (w *ImportWorker) Work(ctx context.Context, job *river.Job[ImportJob]) error {
	imported, err := w.importer.ImportAll(ctx)
	w.logger.InfoContext(ctx, "Blog feeds imported", attr.Int("feeds", len(imported)), attr.Int64("job_id", job.ID))
	if err != nil {
		return fmt.Errorf("blog import incomplete: %w", err)
	}
	return nil
}

// Register adds the import worker and returns its periodic job. A zero
// interval leaves imports to the command line.
func Register(workers *river.Workers, importer Importer, interval time.Duration, logger *slog.Logger) []*river.PeriodicJob {
	river.AddWorker(workers, NewImportWorker(importer, logger))
	if interval <= 0 {
		return nil
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) { return ImportJob{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}
