package history

import (
	"context"

	"github.com/runnerr0/visited/internal/storage"
)

// Store is the host history index consumed by the resolvers.
//
// GetVisits returns visits to exactly url, most recent first.
// SearchHistory returns items whose URL or title matches q.Text, newest
// first, capped at q.Limit; an empty Text lists the most recent entries.
// Neither returns an error for a query that matches nothing.
type Store interface {
	GetVisits(ctx context.Context, url string) ([]storage.Visit, error)
	SearchHistory(ctx context.Context, q storage.SearchQuery) ([]storage.HistoryItem, error)
}
