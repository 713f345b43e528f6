package history

import (
	"context"
	"strings"

	"github.com/runnerr0/visited/internal/storage"
)

// sample is a snapshot of recent history keyed by URL. entries keeps the
// order in which URLs first appeared; a repeated URL replaces the value
// but keeps its position.
type sample struct {
	index   map[string]int
	entries []storage.HistoryItem
}

func newSample(items []storage.HistoryItem) *sample {
	s := &sample{
		index:   make(map[string]int, len(items)),
		entries: make([]storage.HistoryItem, 0, len(items)),
	}
	for _, item := range items {
		if i, ok := s.index[item.URL]; ok {
			s.entries[i] = item
			continue
		}
		s.index[item.URL] = len(s.entries)
		s.entries = append(s.entries, item)
	}
	return s
}

func (s *sample) exact(url string) (storage.HistoryItem, bool) {
	i, ok := s.index[url]
	if !ok {
		return storage.HistoryItem{}, false
	}
	return s.entries[i], true
}

// newestChild returns the entry prefixed by url with the greatest last
// visit time. Entries without a visit time never qualify; on equal times
// the earlier entry wins.
func (s *sample) newestChild(url string) (storage.HistoryItem, bool) {
	var best *storage.HistoryItem
	for i := range s.entries {
		item := &s.entries[i]
		if item.LastVisitTime.IsZero() || !strings.HasPrefix(item.URL, url) {
			continue
		}
		if best == nil || item.LastVisitTime.After(best.LastVisitTime) {
			best = item
		}
	}
	if best == nil {
		return storage.HistoryItem{}, false
	}
	return *best, true
}

// resolveSampled loads the most recent history once and answers every URL
// from that snapshot. The cache is neither read nor written.
func (r *Resolver) resolveSampled(ctx context.Context, urls []string, opts Options) map[string]VisitRecord {
	recent, err := r.store.SearchHistory(ctx, storage.SearchQuery{Limit: r.sampleSize})
	if err != nil {
		r.storeFailed("sample", "", err)
		recent = nil
	}
	s := newSample(recent)

	items := make(map[string]VisitRecord)
	for _, url := range urls {
		if item, ok := s.exact(url); ok {
			items[url] = VisitRecord{
				URL:           url,
				LastVisitTime: item.LastVisitTime,
				VisitCount:    item.VisitCount,
				ExactMatch:    item.URL == url,
			}
			continue
		}
		if !opts.InheritVisits {
			continue
		}
		if item, ok := s.newestChild(url); ok {
			items[url] = VisitRecord{
				URL:           url,
				LastVisitTime: item.LastVisitTime,
				VisitCount:    item.VisitCount,
				ExactMatch:    false,
			}
		}
	}
	return items
}
