package history

import "time"

// Mode tags how a Response was produced.
type Mode string

const (
	ModeFull   Mode = "full"
	ModeSample Mode = "sample"
)

// VisitRecord is the resolved visit state for one queried URL.
// ExactMatch is false when the record was inherited from a URL that
// extends the queried one.
type VisitRecord struct {
	URL           string
	LastVisitTime time.Time
	VisitCount    int64
	ExactMatch    bool
}

// Response maps each queried URL that produced a match to its record.
type Response struct {
	Mode  Mode
	Items map[string]VisitRecord
}

// Options is the per-request configuration handed to Resolve.
type Options struct {
	UseCache      bool
	InheritVisits bool
	URLsLimit     int
	MaxCacheSize  int
}
