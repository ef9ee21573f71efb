package challengeservice

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
)

// PhaseCacheKey buckets "now" so every request inside one TTL window shares
// the same resolved status.
type PhaseCacheKey struct {
	ChallengeID int64
	Bucket      int64
}

// PhaseStatusCache stores resolved phase statuses. Entries expire on their
// own; nothing is invalidated explicitly.
type PhaseStatusCache interface {
	Key(challengeID int64, now time.Time) PhaseCacheKey
	Get(key PhaseCacheKey) (challengedomain.PhaseStatus, bool)
	Add(key PhaseCacheKey, status challengedomain.PhaseStatus)
}

// LRUPhaseCache is a bounded, TTL-expiring PhaseStatusCache.
type LRUPhaseCache struct {
	ttl   time.Duration
	cache *expirable.LRU[PhaseCacheKey, challengedomain.PhaseStatus]
}

var _ PhaseStatusCache = (*LRUPhaseCache)(nil)

// NewLRUPhaseCache creates a cache holding up to size entries for ttl.
func NewLRUPhaseCache(size int, ttl time.Duration) *LRUPhaseCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LRUPhaseCache{
		ttl:   ttl,
		cache: expirable.NewLRU[PhaseCacheKey, challengedomain.PhaseStatus](size, nil, ttl),
	}
}

func (c *LRUPhaseCache) Key(challengeID int64, now time.Time) PhaseCacheKey {
	return PhaseCacheKey{ChallengeID: challengeID, Bucket: now.Truncate(c.ttl).Unix()}
}

func (c *LRUPhaseCache) Get(key PhaseCacheKey) (challengedomain.PhaseStatus, bool) {
	return c.cache.Get(key)
}

func (c *LRUPhaseCache) Add(key PhaseCacheKey, status challengedomain.PhaseStatus) {
	c.cache.Add(key, status)
}
