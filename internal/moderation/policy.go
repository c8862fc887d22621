package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/darkroom/internal/db"
	"github.com/iamwavecut/darkroom/internal/observability"
)

// checkSuspension handles senders that already sit in the dark room. Expired records
// are removed here and the message falls through to the regular checks.
func (m *Moderator) checkSuspension(ctx context.Context, entry *log.Entry, msg Message, now time.Time) (Decision, bool) {
	suspension, err := m.store.GetSuspension(ctx, msg.UserID)
	if err != nil {
		entry.WithError(err).Error("cant get suspension")
		return Decision{State: StateUnavailable}, true
	}
	if suspension == nil {
		return Decision{}, false
	}

	if suspension.Expired(now) {
		removed, err := m.store.DeleteSuspension(ctx, msg.UserID)
		if err != nil {
			entry.WithError(err).Error("cant release expired suspension")
			return Decision{State: StateUnavailable}, true
		}
		if removed {
			observability.RecordRelease("expired", 1)
		}
		entry.Info("suspension expired, user released")
		return Decision{}, false
	}

	entry.WithField("remaining", suspension.Remaining(now)).Info("user is already in the dark room")
	return Decision{
		State: StateCurrentlySuspended,
		Block: true,
		Reply: suspendedReply(suspension, now, msg.Language),
	}, true
}

// evaluate runs the flood and banned word checks for a regular chat message.
func (m *Moderator) evaluate(ctx context.Context, entry *log.Entry, msg Message, now time.Time) Decision {
	count := m.tracker.Update(msg.UserID, msg.Text, now)
	entry = entry.WithField("trigger_count", count)

	if m.isAdmin(msg) {
		entry.Trace("admin is exempt from checks")
		return Decision{State: StateAdminBypass}
	}

	if count >= m.config.TriggerCount {
		entry.Info("user is flooding")
		if !m.suspend(ctx, entry, msg, now, db.ReasonFlooding) {
			return Decision{State: StateUnavailable}
		}
		return Decision{
			State: StateFloodViolation,
			Block: true,
			Reply: floodReply(m.config.DurationOfBan, msg.Language),
		}
	}

	if word, ok := m.findBannedWord(msg.Text); ok {
		entry.WithField("word", word).Info("user used a banned word")
		if !m.suspend(ctx, entry, msg, now, db.ReasonBannedWord) {
			return Decision{State: StateUnavailable}
		}
		return Decision{
			State: StateWordViolation,
			Block: true,
			Reply: wordReply(m.config.DurationOfBan, msg.Language),
		}
	}

	return Decision{State: StateClean}
}

// suspend stores the record; an existing record counts as success.
func (m *Moderator) suspend(ctx context.Context, entry *log.Entry, msg Message, now time.Time, reason string) bool {
	suspension := db.NewSuspension(msg.UserID, msg.UserName, msg.GroupName, now.Add(m.config.DurationOfBan), reason)
	err := m.store.PutSuspension(ctx, suspension)
	switch {
	case err == nil:
		observability.RecordSuspension(reason)
		entry.WithFields(log.Fields{
			"reason":     reason,
			"release_at": suspension.ReleaseTime().Format(releaseTimeLayout),
		}).Info("user sent to the dark room")
		return true
	case errors.Is(err, db.ErrAlreadySuspended):
		entry.Warn("user is already suspended")
		return true
	default:
		entry.WithError(err).Error("cant suspend user")
		return false
	}
}

// findBannedWord returns the first configured word contained in text, case sensitive.
func (m *Moderator) findBannedWord(text string) (string, bool) {
	if !m.config.CheckProhibitedWords {
		return "", false
	}
	for _, word := range m.config.ProhibitedWords {
		if word != "" && strings.Contains(text, word) {
			return word, true
		}
	}
	return "", false
}
