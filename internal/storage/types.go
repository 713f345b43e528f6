package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a page or setting does not exist.
var ErrNotFound = errors.New("not found")

// Visit is a single navigation to a URL.
type Visit struct {
	ID        string
	URL       string
	Title     string
	VisitTime time.Time
	Source    string // "extension", "manual", "import"
}

// HistoryItem is the aggregate history entry for one distinct URL.
type HistoryItem struct {
	URL           string
	Title         string
	Domain        string
	LastVisitTime time.Time
	VisitCount    int64
}

// SearchQuery defines filters for searching history items.
type SearchQuery struct {
	Text   string
	Domain string
	Since  time.Time
	Until  time.Time
	Limit  int
}

// Stats holds aggregate statistics about the history database.
type Stats struct {
	TotalPages  int64
	TotalVisits int64
	OldestVisit time.Time
	NewestVisit time.Time
	TopDomains  []DomainCount
}

// DomainCount pairs a domain with its visit count.
type DomainCount struct {
	Domain string
	Count  int64
}
