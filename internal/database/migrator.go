// Package database opens SQL connections and applies schema migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations
var migrations embed.FS

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
`

// Migrator applies plain .up.sql migrations in lexical order. Applied files
// are recorded in schema_migrations and skipped on later runs.
type Migrator struct {
	db   *sql.DB
	fsys fs.FS
	log  *slog.Logger
}

// NewMigrator constructs a Migrator for the bundled migrations of driver.
func NewMigrator(db *sql.DB, driver string, log *slog.Logger) (*Migrator, error) {
	sub, err := fs.Sub(migrations, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("migrations for %q: %w", driver, err)
	}
	if _, err := fs.ReadDir(sub, "."); err != nil {
		return nil, fmt.Errorf("migrations for %q: %w", driver, err)
	}
	return NewMigratorFS(db, sub, log), nil
}

// NewMigratorFS constructs a Migrator reading migrations from the root of fsys.
func NewMigratorFS(db *sql.DB, fsys fs.FS, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{
		db:   db,
		fsys: fsys,
		log:  log,
	}
}

// Apply runs every pending migration and returns how many were applied.
func (m *Migrator) Apply(ctx context.Context) (int, error) {
	files, err := ListMigrations(m.fsys, ".")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}

	if len(files) == 0 {
		m.log.Info("no .up.sql migrations found")
		return 0, nil
	}

	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	for _, name := range files {
		if applied[name] {
			continue
		}
		if err := m.applyFile(ctx, name); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("select applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) applyFile(ctx context.Context, name string) error {
	scopedLog := m.log.With(slog.String("file", name))
	scopedLog.Info("applying migration")

	data, err := fs.ReadFile(m.fsys, name)
	if err != nil {
		return fmt.Errorf("read migration %q: %w", name, err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for migration %q: %w", name, err)
	}

	statement := strings.TrimSpace(string(data))
	if statement == "" {
		scopedLog.Warn("migration is empty, recording only")
	} else if _, execErr := tx.ExecContext(ctx, statement); execErr != nil {
		rollback(tx, scopedLog)
		return fmt.Errorf("execute migration %q: %w", name, execErr)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		rollback(tx, scopedLog)
		return fmt.Errorf("record migration %q: %w", name, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		rollback(tx, scopedLog)
		return fmt.Errorf("commit migration %q: %w", name, commitErr)
	}

	return nil
}

func rollback(tx *sql.Tx, log *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error("rollback error", slog.Any("error", err))
	}
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, ".up.sql")
}

// ListMigrations returns all .up.sql files in dir in lexical order.
func ListMigrations(dir fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(dir, root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isUpMigration(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}
