package db

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	derrors "github.com/iamwavecut/darkroom/internal/errors"
)

const (
	ReasonFlooding   = "flooding"
	ReasonBannedWord = "banned word"
)

var ErrAlreadySuspended = errors.New("user is already suspended")

type (
	// Suspension is a single dark room record, keyed by the sender's stable id.
	Suspension struct {
		UserID    string         `db:"user_id"`
		UserName  string         `db:"user_name"`
		GroupName sql.NullString `db:"group_name"`
		ReleaseAt int64          `db:"release_at"`
		Reason    string         `db:"notes"`
	}
)

func NewSuspension(userID, userName, groupName string, releaseAt time.Time, reason string) *Suspension {
	return &Suspension{
		UserID:    userID,
		UserName:  userName,
		GroupName: sql.NullString{String: groupName, Valid: groupName != ""},
		ReleaseAt: releaseAt.Unix(),
		Reason:    reason,
	}
}

func (s *Suspension) ReleaseTime() time.Time {
	return time.Unix(s.ReleaseAt, 0)
}

// Expired reports whether the release moment is strictly before now.
func (s *Suspension) Expired(now time.Time) bool {
	return s.ReleaseAt < now.Unix()
}

// Remaining is the number of whole seconds left until release, never negative.
func (s *Suspension) Remaining(now time.Time) int64 {
	left := s.ReleaseAt - now.Unix()
	if left < 0 {
		return 0
	}
	return left
}

// Validate checks the record shape only. The release moment is chosen by the caller's clock.
func (s *Suspension) Validate() error {
	if s == nil {
		return errors.Wrap(derrors.ErrInvalidInput, "nil suspension")
	}
	if s.UserID == "" {
		return errors.Wrap(derrors.ErrInvalidInput, "empty user id")
	}
	if s.ReleaseAt <= 0 {
		return errors.Wrapf(derrors.ErrInvalidInput, "release at %d is not set", s.ReleaseAt)
	}
	return nil
}
