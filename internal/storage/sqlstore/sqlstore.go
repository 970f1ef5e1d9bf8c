// Package sqlstore holds the queries shared by the SQLite and PostgreSQL
// providers. Queries are written with ? placeholders and rebound for the
// target dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Queries implements the data methods of storage.Provider on a *sql.DB.
type Queries struct {
	db      *sql.DB
	dialect Dialect
	// isUnique reports whether err is a unique-constraint violation.
	isUnique func(error) bool
}

func New(db *sql.DB, dialect Dialect, isUnique func(error) bool) *Queries {
	if isUnique == nil {
		isUnique = func(error) bool { return false }
	}
	return &Queries{db: db, dialect: dialect, isUnique: isUnique}
}

// DB returns the underlying connection.
func (q *Queries) DB() *sql.DB {
	return q.db
}

func (q *Queries) rebind(query string) string {
	if q.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (q *Queries) exec(ctx context.Context, db queryer, query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, db queryer, query string, args ...interface{}) (*sql.Rows, error) {
	return db.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, db queryer, query string, args ...interface{}) *sql.Row {
	return db.QueryRowContext(ctx, q.rebind(query), args...)
}

func (q *Queries) wrapWrite(op string, err error) error {
	if q.isUnique(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Settings

func (q *Queries) GetSettings(ctx context.Context) (models.Settings, error) {
	rows, err := q.query(ctx, q.db, "SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}
	if len(data) == 0 {
		return models.Settings{}, fmt.Errorf("settings: %w", storage.ErrNotFound)
	}
	return models.MapToSettings(data)
}

func (q *Queries) SaveSettings(ctx context.Context, settings models.Settings) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range models.SettingsToMap(settings) {
		if _, err := q.exec(ctx, tx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return tx.Commit()
}
