package application

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// feedCache stores rendered calendar feeds per venue so repeated downloads
// skip the repository and the encoder while the venue's bookings are
// unchanged. Every booking or venue mutation invalidates the venue's entry.
//
// Each venue also carries a generation that Invalidate bumps. A render
// records the generation before reading bookings and stores its result with
// StoreIfCurrent, so a render that raced a mutation is dropped.
type feedCache struct {
	entries *expirable.LRU[string, []byte]

	mu          sync.Mutex
	generations map[string]uint64
}

func newFeedCache(ttl time.Duration, maxEntries int) *feedCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &feedCache{
		entries:     expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
		generations: make(map[string]uint64),
	}
}

func (c *feedCache) Get(venueID string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	feed, ok := c.entries.Get(venueID)
	if !ok {
		return nil, false
	}
	return cloneFeed(feed), true
}

func (c *feedCache) Store(venueID string, feed []byte) {
	if c == nil {
		return
	}
	c.entries.Add(venueID, cloneFeed(feed))
}

// Generation returns the venue's current invalidation count.
func (c *feedCache) Generation(venueID string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[venueID]
}

// StoreIfCurrent caches feed only when no invalidation of the venue happened
// since generation was read.
func (c *feedCache) StoreIfCurrent(venueID string, generation uint64, feed []byte) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[venueID] != generation {
		return false
	}
	c.entries.Add(venueID, cloneFeed(feed))
	return true
}

func (c *feedCache) Invalidate(venueIDs ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range venueIDs {
		c.generations[id]++
		c.entries.Remove(id)
	}
}

func (c *feedCache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func cloneFeed(feed []byte) []byte {
	if feed == nil {
		return nil
	}
	out := make([]byte, len(feed))
	copy(out, feed)
	return out
}
