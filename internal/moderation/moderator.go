package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/darkroom/internal/config"
	"github.com/iamwavecut/darkroom/internal/infra"
	"github.com/iamwavecut/darkroom/internal/observability"
)

// Moderator is the single entry point for inbound messages. It is safe for concurrent use.
type Moderator struct {
	store    suspensionStore
	config   config.Moderation
	language string

	tracker  *ActivityTracker
	debounce *Debouncer
	admins   *AdminSessions

	now    func() time.Time
	logger *log.Entry
}

type Option func(m *Moderator)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Moderator) {
		m.now = now
	}
}

func WithLanguage(lang string) Option {
	return func(m *Moderator) {
		m.language = lang
	}
}

func NewModerator(store suspensionStore, cfg config.Moderation, opts ...Option) *Moderator {
	m := &Moderator{
		store:    store,
		config:   cfg,
		language: "en",
		tracker:  NewActivityTracker(cfg.MessageTimeFrame),
		debounce: NewDebouncer(cfg.IntervalToPreventShaking),
		admins:   NewAdminSessions(),
		now:      time.Now,
		logger:   log.WithField("component", "moderator"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Moderator) Start(_ context.Context) error {
	m.logger.WithFields(log.Fields{
		"trigger_count": m.config.TriggerCount,
		"time_frame":    m.config.MessageTimeFrame.String(),
		"ban_duration":  m.config.DurationOfBan.String(),
		"words_check":   m.config.CheckProhibitedWords,
	}).Info("dark room is open")
	return nil
}

// Stop releases the store.
func (m *Moderator) Stop(_ context.Context) error {
	m.logger.Info("closing dark room store")
	return m.store.Close()
}

// Handle evaluates one message and never fails: internal errors are logged and
// degrade into a decision without a reply.
func (m *Moderator) Handle(ctx context.Context, msg Message) (decision Decision) {
	done := observability.StartMessageProcessing()
	defer done()

	entry := m.logger.WithFields(log.Fields{
		"event_id":  uuid.New(),
		"user_id":   msg.UserID,
		"user_name": msg.UserName,
	})
	defer func() {
		observability.RecordDecision(string(decision.State))
		entry.WithField("state", decision.State).Trace("message handled")
	}()
	defer infra.Recover(entry, "moderate", func(any) {
		decision = Decision{State: StateUnavailable}
	})

	if msg.UserID == "" {
		return Decision{State: StateClean}
	}
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Language == "" {
		msg.Language = m.language
	}
	now := m.now()

	if m.debounce.ShouldSkip(msg.UserID, now) {
		entry.Debug("repeated trigger in a short time, ignoring")
		return Decision{State: StateDebounced}
	}

	if d, handled := m.checkSuspension(ctx, entry, msg, now); handled {
		return d
	}

	if cmd, ok := ParseCommand(msg.Text, m.config.CommandMarker); ok {
		return m.execute(ctx, entry, msg, cmd)
	}

	return m.evaluate(ctx, entry, msg, now)
}

func (m *Moderator) isAdmin(msg Message) bool {
	return m.admins.Has(msg.UserID) || m.config.IsPreAuthorized(msg.UserID)
}

// Tracker exposes the activity tracker for inspection.
func (m *Moderator) Tracker() *ActivityTracker {
	return m.tracker
}

func (m *Moderator) Admins() *AdminSessions {
	return m.admins
}
