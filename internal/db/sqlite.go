package db

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

//go:embed seed.sql
var seedSQL string

// TimeLayout is the storage format of every timestamp column.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the storage format of calendar days.
const DateLayout = "2006-01-02"

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps an in-memory SQLite database. The pool is pinned to a single
// connection: the database lives in that connection, and every statement and
// transaction is serialized through it.
type Store struct {
	DB *sql.DB
}

// Open creates an empty store with the schema applied.
func Open(ctx context.Context) (*Store, error) {
	s, err := openMemory(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenSeeded creates a store from the bundled schema and seed data.
func OpenSeeded(ctx context.Context) (*Store, error) {
	s, err := Open(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.DB.ExecContext(ctx, seedSQL); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "apply seed data")
	}
	return s, nil
}

// OpenImage creates a store from a serialized database image. The image is
// deserialized into a scratch connection and copied into a fresh in-memory
// database, since a deserialized buffer has a fixed size and cannot grow.
func OpenImage(ctx context.Context, image []byte) (*Store, error) {
	if len(image) == 0 {
		return nil, errors.New("empty store image")
	}
	scratch, err := openMemory(ctx)
	if err != nil {
		return nil, err
	}
	defer scratch.Close()
	err = scratch.raw(ctx, func(c *sqlite3.SQLiteConn) error {
		return c.Deserialize(image, "main")
	})
	if err != nil {
		return nil, errors.Wrap(err, "deserialize store image")
	}
	var pageSize int
	if err := scratch.DB.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return nil, errors.Wrap(err, "read image page size")
	}

	s, err := openMemory(ctx)
	if err != nil {
		return nil, err
	}
	// An in-memory backup target must share the source page size.
	if _, err := s.DB.ExecContext(ctx, fmt.Sprintf(`PRAGMA page_size = %d`, pageSize)); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "set page size")
	}
	err = s.raw(ctx, func(dst *sqlite3.SQLiteConn) error {
		return scratch.raw(ctx, func(src *sqlite3.SQLiteConn) error {
			return copyDatabase(dst, src)
		})
	})
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "load store image")
	}
	// Older images may predate newer tables.
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func copyDatabase(dst, src *sqlite3.SQLiteConn) error {
	b, err := dst.Backup("main", src, "main")
	if err != nil {
		return err
	}
	done, err := b.Step(-1)
	if err == nil && !done {
		err = errors.New("backup did not complete")
	}
	if err != nil {
		b.Finish()
		return err
	}
	return b.Finish()
}

func openMemory(ctx context.Context) (*Store, error) {
	raw, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	raw.SetMaxOpenConns(1)
	raw.SetMaxIdleConns(1)
	raw.SetConnMaxLifetime(0)
	raw.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := raw.PingContext(pingCtx); err != nil {
		raw.Close()
		return nil, errors.Wrap(err, "sqlite ping failed")
	}
	return &Store{DB: raw}, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// Export serializes the whole database.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	var image []byte
	err := s.raw(ctx, func(c *sqlite3.SQLiteConn) error {
		b, err := c.Serialize("main")
		image = b
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "serialize store image")
	}
	return image, nil
}

func (s *Store) raw(ctx context.Context, fn func(c *sqlite3.SQLiteConn) error) error {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Raw(func(dc any) error {
		c, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return errors.Errorf("unexpected driver connection %T", dc)
		}
		return fn(c)
	})
}

// InTx runs fn inside a transaction, committing when fn succeeds and rolling
// back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func (s *Store) Close() {
	if s != nil && s.DB != nil {
		s.DB.Close()
	}
}

// Health checks the database connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// IsUniqueViolation checks for SQLite unique constraint errors.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if stderrors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// FormatTime renders t in the storage layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime reads a stored timestamp in local time; malformed input yields the zero time.
func ParseTime(s string) time.Time {
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
