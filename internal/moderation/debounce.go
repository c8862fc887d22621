package moderation

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Debouncer drops events that follow the previous attempt from the same user too closely.
type Debouncer struct {
	interval time.Duration
	last     *xsync.MapOf[string, time.Time]
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		last:     xsync.NewMapOf[string, time.Time](),
	}
}

// ShouldSkip reports whether the event at now must be ignored. The last event time is
// refreshed even for skipped events, so a burst collapses into a single processed event.
func (d *Debouncer) ShouldSkip(userID string, now time.Time) bool {
	var skip bool
	d.last.Compute(userID, func(prev time.Time, loaded bool) (time.Time, bool) {
		skip = loaded && now.Sub(prev) < d.interval
		return now, false
	})
	return skip
}
