package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/runnerr0/visited/internal/storage"
)

var errHostDown = errors.New("history host unavailable")

// fakeStore is an in-memory Store that records every call.
type fakeStore struct {
	mu          sync.Mutex
	visits      map[string][]storage.Visit
	searches    map[string][]storage.HistoryItem
	recent      []storage.HistoryItem
	visitsErr   error
	searchErr   error
	visitCalls  []string
	searchCalls []storage.SearchQuery
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		visits:   make(map[string][]storage.Visit),
		searches: make(map[string][]storage.HistoryItem),
	}
}

// withVisits registers count visits to url, the newest at latest.
func (f *fakeStore) withVisits(url string, latest time.Time, count int) *fakeStore {
	vs := make([]storage.Visit, count)
	for i := range vs {
		vs[i] = storage.Visit{URL: url, VisitTime: latest.Add(-time.Duration(i) * time.Minute)}
	}
	f.visits[url] = vs
	return f
}

func (f *fakeStore) withSearch(text string, items ...storage.HistoryItem) *fakeStore {
	f.searches[text] = items
	return f
}

func (f *fakeStore) withRecent(items ...storage.HistoryItem) *fakeStore {
	f.recent = items
	return f
}

func (f *fakeStore) GetVisits(_ context.Context, url string) ([]storage.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visitCalls = append(f.visitCalls, url)
	if f.visitsErr != nil {
		return nil, f.visitsErr
	}
	return f.visits[url], nil
}

func (f *fakeStore) SearchHistory(_ context.Context, q storage.SearchQuery) ([]storage.HistoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if q.Text == "" {
		if q.Limit < len(f.recent) {
			return f.recent[:q.Limit], nil
		}
		return f.recent, nil
	}
	return f.searches[q.Text], nil
}

func (f *fakeStore) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visitCalls) + len(f.searchCalls)
}

func histItem(url string, ms int64, count int64) storage.HistoryItem {
	return storage.HistoryItem{URL: url, LastVisitTime: time.UnixMilli(ms), VisitCount: count}
}

// sizeLog records every size reported by the cache.
type sizeLog struct {
	mu    sync.Mutex
	sizes []int
}

func (s *sizeLog) ReportCacheSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes = append(s.sizes, n)
}

func (s *sizeLog) last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sizes) == 0 {
		return -1
	}
	return s.sizes[len(s.sizes)-1]
}
