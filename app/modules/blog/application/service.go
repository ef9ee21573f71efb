package blogservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/mmcdole/gofeed"
	blogdomain "github.com/mozilla/mozilla-ignite/app/modules/blog/domain"
	blogdb "github.com/mozilla/mozilla-ignite/app/modules/blog/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// BlogService implements the Service interface.
type BlogService struct {
	repo   blogdb.Repository
	parser FeedParser
	cfg    config.BlogConfig
	clock  clock.Clock
	obs    observability.Instrumentation
	logger *slog.Logger
	db     *bun.DB
}

var _ Service = (*BlogService)(nil)

// NewBlogService creates a BlogService. A nil parser uses gofeed's default.
func NewBlogService(
	repo blogdb.Repository,
	parser FeedParser,
	cfg config.BlogConfig,
	clk clock.Clock,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *BlogService {
	if parser == nil {
		parser = gofeed.NewParser()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if cfg.EntriesPerFeed <= 0 {
		cfg.EntriesPerFeed = blogdomain.DefaultEntriesPerFeed
	}
	return &BlogService{
		repo:   repo,
		parser: parser,
		cfg:    cfg,
		clock:  clk,
		obs:    observability.NewInstrumentation("BlogService", logger, metrics, tracer),
		logger: logger,
		db:     db,
	}
}

func execute[S any](
	s *BlogService,
	ctx context.Context,
	op, id string,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	var zero S
	result, err := observability.WithTelemetry(s.obs, ctx, op, id, func(ctx context.Context) (results.OperationResult[S, error], error) {
		return dbtx.RunInTx(ctx, s.db, fn)
	})
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}

// ImportFeed stores the first entries of feedURL under page and deletes the
// page's entries that are no longer in the feed.
func (s *BlogService) ImportFeed(ctx context.Context, page, feedURL string) (ImportResult, error) {
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to fetch feed %q: %w", feedURL, err)
	}

	items := feed.Items
	if len(items) > s.cfg.EntriesPerFeed {
		items = items[:s.cfg.EntriesPerFeed]
	}

	return execute(s, ctx, "ImportFeed", page, func(ctx context.Context, db bun.IDB) (results.OperationResult[ImportResult, error], error) {
		res := ImportResult{Page: page}
		keep := make([]int64, 0, len(items))

		for _, item := range items {
			entry, ok := s.toEntry(page, item)
			if !ok {
				res.Skipped++
				continue
			}

			existing, err := s.repo.GetByChecksum(ctx, db, entry.Checksum)
			switch {
			case err == nil:
				keep = append(keep, existing.ID)
				res.Existing++
				continue
			case !errors.Is(err, blogdb.ErrNotFound):
				return infraError[ImportResult]("failed to look up blog entry: %w", err)
			}

			if err := s.repo.CreateEntry(ctx, db, entry); err != nil {
				return infraError[ImportResult]("failed to store blog entry: %w", err)
			}
			keep = append(keep, entry.ID)
			res.Created++
		}

		deleted, err := s.repo.DeleteStale(ctx, db, page, keep)
		if err != nil {
			return infraError[ImportResult]("failed to prune blog entries: %w", err)
		}
		res.Deleted = deleted

		s.logger.InfoContext(ctx, "Feed imported",
			attr.String("page", page),
			attr.String("feed_url", feedURL),
			attr.Int("created", res.Created),
			attr.Int("existing", res.Existing),
			attr.Int("deleted", res.Deleted),
		)
		return success(res)
	})
}

func (s *BlogService) toEntry(page string, item *gofeed.Item) (*blogdb.BlogEntry, bool) {
	if item == nil || item.Title == "" || item.Link == "" {
		return nil, false
	}
	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	clean := blogdomain.CleanSummary(summary)

	updated := s.clock.Now()
	switch {
	case item.UpdatedParsed != nil:
		updated = *item.UpdatedParsed
	case item.PublishedParsed != nil:
		updated = *item.PublishedParsed
	}

	var author string
	switch {
	case item.Author != nil:
		author = item.Author.Name
	case len(item.Authors) > 0 && item.Authors[0] != nil:
		author = item.Authors[0].Name
	}

	return &blogdb.BlogEntry{
		Title:     item.Title,
		Link:      item.Link,
		Summary:   clean,
		Page:      page,
		Checksum:  blogdomain.Checksum(clean, page),
		UpdatedAt: updated.UTC(),
		Author:    author,
	}, true
}

// ImportAll imports every configured feed in page order. A failing feed does
// not stop the others.
func (s *BlogService) ImportAll(ctx context.Context) ([]ImportResult, error) {
	pages := slices.Sorted(maps.Keys(s.cfg.Feeds))
	out := make([]ImportResult, 0, len(pages))
	var errs []error

	for _, page := range pages {
		res, err := s.ImportFeed(ctx, page, s.cfg.Feeds[page])
		if err != nil {
			s.logger.ErrorContext(ctx, "Feed import failed", attr.String("page", page), attr.Error(err))
			errs = append(errs, fmt.Errorf("page %s: %w", page, err))
			continue
		}
		out = append(out, res)
	}
	return out, errors.Join(errs...)
}

func (s *BlogService) Latest(ctx context.Context, page string, limit int) ([]EntryView, error) {
	if limit <= 0 {
		limit = s.cfg.EntriesPerFeed
	}
	return execute(s, ctx, "Latest", page, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]EntryView, error], error) {
		entries, err := s.repo.ListLatest(ctx, db, page, limit)
		if err != nil {
			return infraError[[]EntryView]("failed to list blog entries: %w", err)
		}
		views := make([]EntryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, EntryView{
				Title:     e.Title,
				Link:      e.Link,
				Summary:   e.Summary,
				Author:    e.Author,
				UpdatedAt: e.UpdatedAt,
			})
		}
		return success(views)
	})
}

func success[S any](v S) (results.OperationResult[S, error], error) {
	return results.SuccessResult[S, error](v), nil
}

func infraError[S any](format string, err error) (results.OperationResult[S, error], error) {
	return results.OperationResult[S, error]{}, fmt.Errorf(format, err)
}
