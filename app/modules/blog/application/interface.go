package blogservice

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedParser fetches and parses a remote feed. *gofeed.Parser satisfies it.
type FeedParser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

var _ FeedParser = (*gofeed.Parser)(nil)

// Service is the blog module's application surface.
type Service interface {
	ImportFeed(ctx context.Context, page, feedURL string) (ImportResult, error)
	ImportAll(ctx context.Context) ([]ImportResult, error)
	Latest(ctx context.Context, page string, limit int) ([]EntryView, error)
}

// ImportResult counts what one feed import changed.
type ImportResult struct {
	Page     string `json:"page"`
	Created  int    `json:"created"`
	Existing int    `json:"existing"`
	Skipped  int    `json:"skipped"`
	Deleted  int    `json:"deleted"`
}

type EntryView struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Author    string    `json:"author,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
