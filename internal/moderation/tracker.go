package moderation

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type activityRecord struct {
	lastMessage  string
	triggerCount int
	windowStart  time.Time
}

// ActivityTracker counts consecutive identical messages per user inside a repeat window.
type ActivityTracker struct {
	window  time.Duration
	records *xsync.MapOf[string, activityRecord]
}

func NewActivityTracker(window time.Duration) *ActivityTracker {
	return &ActivityTracker{
		window:  window,
		records: xsync.NewMapOf[string, activityRecord](),
	}
}

// Update registers content from userID at now and returns the resulting trigger count.
// A message only counts as a repeat when it is identical to the last one and the
// window that started with that message is still open.
func (t *ActivityTracker) Update(userID, content string, now time.Time) int {
	record, _ := t.records.Compute(userID, func(old activityRecord, loaded bool) (activityRecord, bool) {
		if loaded && content == old.lastMessage && now.Sub(old.windowStart) <= t.window {
			old.triggerCount++
			return old, false
		}
		return activityRecord{
			lastMessage:  content,
			triggerCount: 1,
			windowStart:  now,
		}, false
	})
	return record.triggerCount
}

// Count returns the current trigger count, 0 for unknown users.
func (t *ActivityTracker) Count(userID string) int {
	record, ok := t.records.Load(userID)
	if !ok {
		return 0
	}
	return record.triggerCount
}

// Reset sets the trigger count of a tracked user back to 1.
func (t *ActivityTracker) Reset(userID string) {
	t.records.Compute(userID, func(old activityRecord, loaded bool) (activityRecord, bool) {
		if !loaded {
			return old, true
		}
		old.triggerCount = 1
		return old, false
	})
}

func (t *ActivityTracker) ResetAll() {
	t.records.Range(func(userID string, _ activityRecord) bool {
		t.Reset(userID)
		return true
	})
}
