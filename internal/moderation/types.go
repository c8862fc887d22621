package moderation

import (
	"context"

	"github.com/iamwavecut/darkroom/internal/db"
)

// State is the outcome class of a single message evaluation.
type State string

const (
	StateDebounced          State = "debounced"
	StateCurrentlySuspended State = "currently_suspended"
	StateAdminCommand       State = "admin_command"
	StateAdminBypass        State = "admin_bypass"
	StateFloodViolation     State = "flood_violation"
	StateWordViolation      State = "word_violation"
	StateClean              State = "clean"
	// StateUnavailable means the store failed and nothing was decided.
	StateUnavailable State = "unavailable"
)

type (
	// Message is one inbound chat event as seen by the moderator.
	Message struct {
		UserID    string
		UserName  string
		GroupName string
		Text      string
		IsGroup   bool
		Language  string
	}

	// Decision tells the host whether to stop handling the message and what to answer.
	Decision struct {
		State State
		Block bool
		Reply string
	}

	suspensionStore interface {
		PutSuspension(ctx context.Context, suspension *db.Suspension) error
		GetSuspension(ctx context.Context, userID string) (*db.Suspension, error)
		DeleteSuspension(ctx context.Context, userID string) (bool, error)
		DeleteAllSuspensions(ctx context.Context) (int64, error)
		FindSuspendedUserID(ctx context.Context, name string) (string, error)
		ListSuspensions(ctx context.Context) ([]*db.Suspension, error)
		Close() error
	}
)

func (d Decision) HasReply() bool {
	return d.Reply != ""
}
