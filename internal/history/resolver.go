package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultURLsLimit is the largest batch resolved URL by URL.
	DefaultURLsLimit = 100
	// DefaultSearchLimit caps the fallback text search for a single URL.
	DefaultSearchLimit = 50
	// DefaultSampleSize is how many recent history entries sampling scans.
	DefaultSampleSize = 10000
)

// Observer is notified about resolutions and failed store calls.
type Observer interface {
	ObserveResolution(mode Mode, urls int, elapsed time.Duration)
	ObserveStoreFailure(op string)
}

// Resolver decides, per batch, between per-URL and sampled resolution.
type Resolver struct {
	store       Store
	cache       *VisitCache
	observer    Observer
	log         zerolog.Logger
	searchLimit int
	sampleSize  int
}

// NewResolver creates a Resolver over store. cache may be nil, in which
// case UseCache is ignored.
func NewResolver(store Store, cache *VisitCache, log zerolog.Logger) *Resolver {
	return &Resolver{
		store:       store,
		cache:       cache,
		log:         log.With().Str("component", "resolver").Logger(),
		searchLimit: DefaultSearchLimit,
		sampleSize:  DefaultSampleSize,
	}
}

// WithObserver attaches an observer for metrics.
func (r *Resolver) WithObserver(o Observer) *Resolver {
	r.observer = o
	return r
}

// WithSearchLimit overrides the per-URL fallback search cap.
func (r *Resolver) WithSearchLimit(n int) *Resolver {
	if n > 0 {
		r.searchLimit = n
	}
	return r
}

// WithSampleSize overrides how many recent entries sampling loads.
func (r *Resolver) WithSampleSize(n int) *Resolver {
	if n > 0 {
		r.sampleSize = n
	}
	return r
}

// Cache returns the visit cache, which may be nil.
func (r *Resolver) Cache() *VisitCache {
	return r.cache
}

// Resolve looks up every URL in urls. Batches no larger than
// opts.URLsLimit are resolved URL by URL (ModeFull); larger ones are
// resolved against a single bulk listing of recent history (ModeSample).
// Store failures are logged and treated as empty results, so Resolve
// never fails.
func (r *Resolver) Resolve(ctx context.Context, urls []string, opts Options) Response {
	start := time.Now()

	limit := opts.URLsLimit
	if limit <= 0 {
		limit = DefaultURLsLimit
	}
	if opts.UseCache && r.cache != nil && opts.MaxCacheSize > 0 {
		r.cache.SetMaxSize(opts.MaxCacheSize)
	}

	var resp Response
	if len(urls) <= limit {
		resp = Response{Mode: ModeFull, Items: r.resolvePerURL(ctx, urls, opts)}
	} else {
		resp = Response{Mode: ModeSample, Items: r.resolveSampled(ctx, urls, opts)}
	}

	elapsed := time.Since(start)
	r.log.Debug().
		Str("mode", string(resp.Mode)).
		Int("urls", len(urls)).
		Int("matched", len(resp.Items)).
		Dur("elapsed", elapsed).
		Msg("resolved batch")
	if r.observer != nil {
		r.observer.ObserveResolution(resp.Mode, len(urls), elapsed)
	}
	return resp
}

func (r *Resolver) storeFailed(op, url string, err error) {
	ev := r.log.Warn().Err(err).Str("op", op)
	if url != "" {
		ev = ev.Str("url", url)
	}
	ev.Msg("history store call failed")
	if r.observer != nil {
		r.observer.ObserveStoreFailure(op)
	}
}
