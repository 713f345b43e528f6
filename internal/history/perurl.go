package history

import (
	"context"
	"strings"

	"github.com/runnerr0/visited/internal/storage"
)

// lookupStep either produces a record for url or defers to the next step.
type lookupStep func(ctx context.Context, url string, opts Options) (VisitRecord, bool)

func (r *Resolver) perURLSteps(opts Options) []lookupStep {
	var steps []lookupStep
	if opts.UseCache && r.cache != nil {
		steps = append(steps, r.fromCache)
	}
	return append(steps, r.fromExactVisits, r.fromSearch)
}

// resolvePerURL runs the lookup steps for each URL in turn. A URL's chain
// completes before the next URL starts.
func (r *Resolver) resolvePerURL(ctx context.Context, urls []string, opts Options) map[string]VisitRecord {
	steps := r.perURLSteps(opts)
	items := make(map[string]VisitRecord)

	for _, url := range urls {
		for _, step := range steps {
			if rec, ok := step(ctx, url, opts); ok {
				items[url] = rec
				break
			}
		}
	}
	return items
}

func (r *Resolver) fromCache(_ context.Context, url string, _ Options) (VisitRecord, bool) {
	entry, ok := r.cache.Lookup(url)
	if !ok {
		return VisitRecord{}, false
	}
	return VisitRecord{
		URL:           url,
		LastVisitTime: entry.VisitTime,
		VisitCount:    entry.VisitCount,
		ExactMatch:    true,
	}, true
}

func (r *Resolver) fromExactVisits(ctx context.Context, url string, opts Options) (VisitRecord, bool) {
	visits, err := r.store.GetVisits(ctx, url)
	if err != nil {
		r.storeFailed("get_visits", url, err)
		return VisitRecord{}, false
	}
	if len(visits) == 0 {
		return VisitRecord{}, false
	}

	rec := VisitRecord{
		URL:           url,
		LastVisitTime: visits[0].VisitTime,
		VisitCount:    int64(len(visits)),
		ExactMatch:    true,
	}
	r.remember(opts, rec)
	return rec, true
}

// fromSearch takes the first search result, in store order, that is either
// the URL itself or (with inheritance) a URL it prefixes.
func (r *Resolver) fromSearch(ctx context.Context, url string, opts Options) (VisitRecord, bool) {
	items, err := r.store.SearchHistory(ctx, storage.SearchQuery{Text: url, Limit: r.searchLimit})
	if err != nil {
		r.storeFailed("search", url, err)
		return VisitRecord{}, false
	}

	for _, item := range items {
		var exact bool
		switch {
		case item.URL == url:
			exact = true
		case opts.InheritVisits && strings.HasPrefix(item.URL, url):
			exact = false
		default:
			continue
		}

		rec := VisitRecord{
			URL:           url,
			LastVisitTime: item.LastVisitTime,
			VisitCount:    item.VisitCount,
			ExactMatch:    exact,
		}
		r.remember(opts, rec)
		return rec, true
	}
	return VisitRecord{}, false
}

func (r *Resolver) remember(opts Options, rec VisitRecord) {
	if opts.UseCache && r.cache != nil {
		r.cache.Update(rec.URL, rec.LastVisitTime, rec.VisitCount)
	}
}
