package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Proton-105/cashback-bot/internal/domain"
)

// ListBanks returns all banks in insertion order.
func (s *Store) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM banks ORDER BY id`)
	if err != nil {
		s.logError(ctx, "failed to list banks", err)
		return nil, fmt.Errorf("select banks: %w", err)
	}
	defer rows.Close()

	var banks []domain.Bank
	for rows.Next() {
		var b domain.Bank
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		banks = append(banks, b)
	}

	return banks, rows.Err()
}

// ListCategories returns all categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		s.logError(ctx, "failed to list categories", err)
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// AddCategory creates a category. ErrAlreadyExists is returned for a duplicate name.
func (s *Store) AddCategory(ctx context.Context, name string) (domain.Category, error) {
	const query = `
		INSERT INTO categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("add category: empty name")
	}

	c := domain.Category{Name: name}
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&c.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, ErrAlreadyExists
		}

		s.logError(ctx, "failed to add category", err, slog.String("name", name))
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}

	return c, nil
}

// DeleteCategory removes a category together with every cashback entry that uses it.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cashback WHERE category_id = $1`, id); err != nil {
		rollback(tx, s.log)
		s.logError(ctx, "failed to delete category entries", err, slog.Int64("category_id", id))
		return fmt.Errorf("delete category entries: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		rollback(tx, s.log)
		s.logError(ctx, "failed to delete category", err, slog.Int64("category_id", id))
		return fmt.Errorf("delete category: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		rollback(tx, s.log)
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}

	return nil
}

func scanCategories(rows *sql.Rows) ([]domain.Category, error) {
	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
