package blogservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"
	blogdomain "github.com/mozilla/mozilla-ignite/app/modules/blog/domain"
	blogdb "github.com/mozilla/mozilla-ignite/app/modules/blog/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type item struct {
	title, link, summary, pubDate string
}

func rss(items ...item) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Ignite</title>`)
	for _, it := range items {
		fmt.Fprintf(&b, `<item><title>%s</title><link>%s</link><description><![CDATA[%s]]></description><author>team@example.com (Ignite Team)</author>`, it.title, it.link, it.summary)
		if it.pubDate != "" {
			fmt.Fprintf(&b, `<pubDate>%s</pubDate>`, it.pubDate)
		}
		b.WriteString(`</item>`)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

// feedServer serves the current body for every path.
type feedServer struct {
	*httptest.Server
	body string
}

func newFeedServer(t *testing.T, body string) *feedServer {
	t.Helper()
	fs := &feedServer{body: body}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, fs.body)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newService(repo blogdb.Repository, cfg config.BlogConfig) *BlogService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBlogService(repo, gofeed.NewParser(), cfg, clock.NewAnchorClock(now), logger, nil, noop.NewTracerProvider().Tracer("test"), nil)
}

func TestBlogService_ImportFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the first entries with clean summaries", func(t *testing.T) {
		srv := newFeedServer(t, rss(
			item{"One", "http://blog/1", "<p>First <b>post</b></p>", "Mon, 02 Mar 2026 08:00:00 GMT"},
			item{"Two", "http://blog/2", "Second", ""},
			item{"Three", "http://blog/3", "Third", ""},
			item{"Four", "http://blog/4", "Fourth", ""},
		))
		repo := blogdb.NewFakeRepository()
		res, err := newService(repo, config.BlogConfig{}).ImportFeed(ctx, "home", srv.URL)
		require.NoError(t, err)

		assert.Equal(t, ImportResult{Page: "home", Created: 3}, res)
		require.Len(t, repo.Entries, 3)

		entry, err := repo.GetByChecksum(ctx, nil, blogdomain.Checksum("First post", "home"))
		require.NoError(t, err)
		assert.Equal(t, "One", entry.Title)
		assert.Equal(t, "First post", entry.Summary)
		assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), entry.UpdatedAt)
		assert.Equal(t, "Ignite Team", entry.Author)

		second, err := repo.GetByChecksum(ctx, nil, blogdomain.Checksum("Second", "home"))
		require.NoError(t, err)
		assert.Equal(t, now, second.UpdatedAt)
	})

	t.Run("reimport keeps existing and prunes stale", func(t *testing.T) {
		srv := newFeedServer(t, rss(item{"One", "http://blog/1", "First", ""}, item{"Two", "http://blog/2", "Second", ""}))
		repo := blogdb.NewFakeRepository()
		svc := newService(repo, config.BlogConfig{EntriesPerFeed: 2})

		_, err := svc.ImportFeed(ctx, "home", srv.URL)
		require.NoError(t, err)
		_, err = svc.ImportFeed(ctx, "about", srv.URL)
		require.NoError(t, err)
		require.Len(t, repo.Entries, 4)

		srv.body = rss(item{"Two", "http://blog/2", "Second", ""}, item{"New", "http://blog/5", "Fresh", ""})
		res, err := svc.ImportFeed(ctx, "home", srv.URL)
		require.NoError(t, err)
		if diff := cmp.Diff(ImportResult{Page: "home", Created: 1, Existing: 1, Deleted: 1}, res); diff != "" {
			t.Errorf("ImportFeed() mismatch (-want +got):\n%s", diff)
		}

		home, err := repo.ListLatest(ctx, nil, "home", 10)
		require.NoError(t, err)
		assert.Len(t, home, 2)
		about, err := repo.ListLatest(ctx, nil, "about", 10)
		require.NoError(t, err)
		assert.Len(t, about, 2, "other pages are untouched")
	})

	t.Run("items without a link are skipped", func(t *testing.T) {
		srv := newFeedServer(t, rss(item{"No link", "", "x", ""}, item{"Ok", "http://blog/1", "y", ""}))
		repo := blogdb.NewFakeRepository()
		res, err := newService(repo, config.BlogConfig{}).ImportFeed(ctx, "home", srv.URL)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Skipped)
		assert.Equal(t, 1, res.Created)
	})

	t.Run("fetch failure leaves entries alone", func(t *testing.T) {
		srv := newFeedServer(t, "")
		repo := blogdb.NewFakeRepository()
		repo.Entries[1] = &blogdb.BlogEntry{ID: 1, Page: "home", Checksum: "c"}

		_, err := newService(repo, config.BlogConfig{}).ImportFeed(ctx, "home", srv.URL+"/broken")
		require.Error(t, err)
		assert.Len(t, repo.Entries, 1)
	})

	t.Run("store failure", func(t *testing.T) {
		srv := newFeedServer(t, rss(item{"One", "http://blog/1", "First", ""}))
		repo := blogdb.NewFakeRepository()
		repo.CreateEntryFn = func(context.Context, bun.IDB, *blogdb.BlogEntry) error {
			return errors.New("disk full")
		}
		_, err := newService(repo, config.BlogConfig{}).ImportFeed(ctx, "home", srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestBlogService_ImportAll(t *testing.T) {
	srv := newFeedServer(t, rss(item{"One", "http://blog/1", "First", ""}))
	repo := blogdb.NewFakeRepository()
	svc := newService(repo, config.BlogConfig{Feeds: map[string]string{
		"home":  srv.URL + "/home",
		"about": srv.URL + "/broken",
		"apps":  srv.URL + "/apps",
	}})

	results, err := svc.ImportAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page about")

	require.Len(t, results, 2)
	assert.Equal(t, "apps", results[0].Page)
	assert.Equal(t, "home", results[1].Page)
	assert.Len(t, repo.Entries, 2)
}

func TestBlogService_Latest(t *testing.T) {
	repo := blogdb.NewFakeRepository()
	for i := range 5 {
		repo.Entries[int64(i+1)] = &blogdb.BlogEntry{
			ID:        int64(i + 1),
			Title:     fmt.Sprintf("Post %d", i+1),
			Page:      "home",
			UpdatedAt: now.Add(time.Duration(i) * time.Hour),
		}
	}
	repo.Entries[99] = &blogdb.BlogEntry{ID: 99, Page: "about", UpdatedAt: now.Add(48 * time.Hour)}
	svc := newService(repo, config.BlogConfig{})

	views, err := svc.Latest(context.Background(), "home", 0)
	require.NoError(t, err)
	require.Len(t, views, blogdomain.DefaultEntriesPerFeed)
	assert.Equal(t, "Post 5", views[0].Title)

	views, err = svc.Latest(context.Background(), "home", 10)
	require.NoError(t, err)
	assert.Len(t, views, 5)
}
