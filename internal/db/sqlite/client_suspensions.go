package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iamwavecut/darkroom/internal/db"
	derrors "github.com/iamwavecut/darkroom/internal/errors"
)

const suspensionColumns = `user_id, user_name, group_name, release_at, notes`

func (c *sqliteClient) PutSuspension(ctx context.Context, suspension *db.Suspension) error {
	if err := suspension.Validate(); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			INSERT INTO suspensions (`+suspensionColumns+`)
			VALUES (:user_id, :user_name, :group_name, :release_at, :notes)
			ON CONFLICT(user_id) DO NOTHING
		`, suspension)
		if err != nil {
			return errors.Wrapf(derrors.ErrDatabaseError, "insert suspension %s: %v", suspension.UserID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(derrors.ErrDatabaseError, err.Error())
		}
		if affected == 0 {
			return db.ErrAlreadySuspended
		}
		return nil
	})
}

// GetSuspension returns nil without error when the user is not suspended.
func (c *sqliteClient) GetSuspension(ctx context.Context, userID string) (*db.Suspension, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var suspension db.Suspension
	err := c.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &suspension, `SELECT `+suspensionColumns+` FROM suspensions WHERE user_id = ?`, userID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(derrors.ErrDatabaseError, "get suspension %s: %v", userID, err)
	}
	return &suspension, nil
}

func (c *sqliteClient) DeleteSuspension(ctx context.Context, userID string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var removed bool
	err := c.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM suspensions WHERE user_id = ?`, userID)
		if err != nil {
			return errors.Wrapf(derrors.ErrDatabaseError, "delete suspension %s: %v", userID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(derrors.ErrDatabaseError, err.Error())
		}
		removed = affected > 0
		return nil
	})
	return removed, err
}

func (c *sqliteClient) DeleteAllSuspensions(ctx context.Context) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var removed int64
	err := c.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM suspensions`)
		if err != nil {
			return errors.Wrapf(derrors.ErrDatabaseError, "delete all suspensions: %v", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return errors.Wrap(derrors.ErrDatabaseError, err.Error())
		}
		return nil
	})
	return removed, err
}

// FindSuspendedUserID resolves a display name or group alias to the first matching user id, "" when none.
func (c *sqliteClient) FindSuspendedUserID(ctx context.Context, name string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var userID string
	err := c.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &userID, `
			SELECT user_id FROM suspensions
			WHERE user_name = ? OR group_name = ?
			ORDER BY rowid
			LIMIT 1
		`, name, name)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.Wrapf(derrors.ErrDatabaseError, "find suspended user %q: %v", name, err)
	}
	return userID, nil
}

func (c *sqliteClient) ListSuspensions(ctx context.Context) ([]*db.Suspension, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var suspensions []*db.Suspension
	err := c.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &suspensions, `SELECT `+suspensionColumns+` FROM suspensions ORDER BY release_at, user_id`)
	})
	if err != nil {
		return nil, errors.Wrapf(derrors.ErrDatabaseError, "list suspensions: %v", err)
	}
	return suspensions, nil
}
