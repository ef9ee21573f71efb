package blogdomain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultEntriesPerFeed is how many items of a feed are kept.
const DefaultEntriesPerFeed = 3

var strict = bluemonday.StrictPolicy()

// CleanSummary strips every tag from a feed summary.
func CleanSummary(summary string) string {
	return strings.TrimSpace(strict.Sanitize(summary))
}

// Checksum identifies an entry by its cleaned summary and the page it is shown on.
func Checksum(cleanSummary, page string) string {
	sum := md5.Sum([]byte(cleanSummary + page))
	return hex.EncodeToString(sum[:])
}
