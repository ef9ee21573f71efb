package blogdb

import (
	"time"

	"github.com/uptrace/bun"
)

// BlogEntry is an imported feed item shown on a site page.
type BlogEntry struct {
	bun.BaseModel `bun:"table:blog_entries,alias:be"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title,notnull"`
	Link      string    `bun:"link,notnull"`
	Summary   string    `bun:"summary,notnull,default:''"`
	Page      string    `bun:"page,notnull"`
	Checksum  string    `bun:"checksum,notnull,unique"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
	Author    string    `bun:"author,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
