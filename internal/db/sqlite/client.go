package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	derrors "github.com/iamwavecut/darkroom/internal/errors"
	"github.com/iamwavecut/darkroom/resources"
)

const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

// NewSQLiteClient opens (creating when missing) the database file under dir and applies pending migrations.
func NewSQLiteClient(ctx context.Context, dir, name string) (*sqliteClient, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Warn("database does not exist, creating")
	}

	dbx, err := sqlx.ConnectContext(ctx, "sqlite", path+dsnPragmas)
	if err != nil {
		return nil, errors.Wrap(derrors.ErrDatabaseError, err.Error())
	}
	dbx.SetMaxOpenConns(8)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		_ = dbx.Close()
		return nil, errors.Wrap(err, "migrate up")
	}
	if n > 0 {
		log.Infof("applied %d migrations!", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (c *sqliteClient) Close() error {
	return c.db.Close()
}

// withConn runs fn on a connection checked out for this unit of work only.
func (c *sqliteClient) withConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := c.db.Connx(ctx)
	if err != nil {
		return errors.Wrap(derrors.ErrDatabaseError, err.Error())
	}
	defer conn.Close()
	return fn(conn)
}

func (c *sqliteClient) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return c.withConn(ctx, func(conn *sqlx.Conn) error {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return errors.Wrap(derrors.ErrDatabaseError, err.Error())
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrap(derrors.ErrDatabaseError, err.Error())
		}
		return nil
	})
}
