// Package repository implements SQL persistence for users, reference data and
// cashback entries. Queries use $N placeholders understood by both the
// postgres and sqlite drivers.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyExists is returned when a unique name is already taken.
	ErrAlreadyExists = errors.New("repository: already exists")
)

// Store is the SQL-backed data access layer.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New creates a Store over an open database.
func New(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		db:  db,
		log: log,
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) logError(ctx context.Context, msg string, err error, attrs ...any) {
	s.log.ErrorContext(ctx, msg, append(attrs, slog.Any("error", err))...)
}

// placeholders returns "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(from + i))
	}
	return b.String()
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func rollback(tx *sql.Tx, log *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error("rollback error", slog.Any("error", err))
	}
}
