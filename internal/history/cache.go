package history

import (
	"slices"
	"sync"
	"time"
)

// CacheEntry is the last known visit state of a URL.
type CacheEntry struct {
	VisitTime  time.Time
	VisitCount int64
}

// SizeReporter receives the entry count after every cache mutation.
type SizeReporter interface {
	ReportCacheSize(n int)
}

type cacheSlot struct {
	CacheEntry
	seq uint64
}

// VisitCache maps URLs to their last known visit. When it grows past its
// maximum size, the entries with the oldest visit time are evicted first.
//
// The mutex only protects individual operations; a resolution that reads
// then writes an entry can interleave with another one (last write wins).
type VisitCache struct {
	mu       sync.Mutex
	entries  map[string]cacheSlot
	nextSeq  uint64
	maxSize  int
	reporter SizeReporter
	now      func() time.Time
}

// NewVisitCache returns an empty cache holding at most maxSize entries.
// reporter may be nil.
func NewVisitCache(maxSize int, reporter SizeReporter) *VisitCache {
	if maxSize < 0 {
		maxSize = 0
	}
	return &VisitCache{
		entries:  make(map[string]cacheSlot),
		maxSize:  maxSize,
		reporter: reporter,
		now:      time.Now,
	}
}

// Lookup returns the cached entry for url.
func (c *VisitCache) Lookup(url string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.entries[url]
	return slot.CacheEntry, ok
}

// Len returns the number of cached entries.
func (c *VisitCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MaxSize returns the configured capacity.
func (c *VisitCache) MaxSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSize
}

// SetMaxSize changes the capacity. Entries beyond it are evicted on the
// next Update.
func (c *VisitCache) SetMaxSize(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.maxSize = n
	c.mu.Unlock()
}

// Update overwrites the entry for url. A zero visitTime means now and a
// visitCount below 1 means 1. Counts are never merged with the previous
// entry.
func (c *VisitCache) Update(url string, visitTime time.Time, visitCount int64) {
	if visitTime.IsZero() {
		visitTime = c.now()
	}
	if visitCount < 1 {
		visitCount = 1
	}

	c.mu.Lock()
	slot, ok := c.entries[url]
	if !ok {
		slot.seq = c.nextSeq
		c.nextSeq++
	}
	slot.CacheEntry = CacheEntry{VisitTime: visitTime, VisitCount: visitCount}
	c.entries[url] = slot
	if len(c.entries) > c.maxSize {
		c.evictLocked(c.maxSize)
	}
	n := len(c.entries)
	c.mu.Unlock()

	c.report(n)
}

// EvictToSize deletes the entries with the oldest visit time until at most
// n remain. Entries with equal visit times go in insertion order.
func (c *VisitCache) EvictToSize(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.evictLocked(n)
	size := len(c.entries)
	c.mu.Unlock()

	c.report(size)
}

func (c *VisitCache) evictLocked(n int) {
	excess := len(c.entries) - n
	if excess <= 0 {
		return
	}

	type keyed struct {
		url  string
		slot cacheSlot
	}
	all := make([]keyed, 0, len(c.entries))
	for url, slot := range c.entries {
		all = append(all, keyed{url: url, slot: slot})
	}
	slices.SortFunc(all, func(a, b keyed) int {
		if d := a.slot.VisitTime.Compare(b.slot.VisitTime); d != 0 {
			return d
		}
		switch {
		case a.slot.seq < b.slot.seq:
			return -1
		case a.slot.seq > b.slot.seq:
			return 1
		}
		return 0
	})
	for _, k := range all[:excess] {
		delete(c.entries, k.url)
	}
}

// Clear removes every entry.
func (c *VisitCache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()

	c.report(0)
}

func (c *VisitCache) report(n int) {
	if c.reporter != nil {
		c.reporter.ReportCacheSize(n)
	}
}
