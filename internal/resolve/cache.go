package resolve

import (
	"sync"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
)

// Cache memoizes original-post lookups for the duration of one batch. It is
// created at batch start and discarded when the batch completes.
//
// The mutex only protects the map itself; there is no per-key lock around the
// check-then-lookup sequence, so two resolutions missing on the same URL may
// both query the store. The second write wins, which is harmless because the
// cached values are immutable snapshots.
type Cache struct {
	mu      sync.Mutex
	entries map[string]domain.PostRef
}

// NewCache returns an empty per-cycle cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]domain.PostRef)}
}

// Get returns the cached snapshot for the URL, if present.
func (c *Cache) Get(url string) (domain.PostRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.entries[url]
	return ref, ok
}

// Put stores the snapshot under the URL, overwriting any previous entry.
func (c *Cache) Put(url string, ref domain.PostRef) {
	c.mu.Lock()
	c.entries[url] = ref
	c.mu.Unlock()
}
