package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Proton-105/cashback-bot/internal/domain"
)

// InsertCashback stores a new entry and returns its id.
func (s *Store) InsertCashback(ctx context.Context, e domain.CashbackEntry) (int64, error) {
	const query = `
		INSERT INTO cashback (user_id, bank_id, category_id, percent, period)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	if err := s.db.QueryRowContext(ctx, query, e.UserID, e.BankID, e.CategoryID, e.Percent, e.Period).Scan(&id); err != nil {
		s.logError(ctx, "failed to insert cashback", err, entryAttrs(e)...)
		return 0, fmt.Errorf("insert cashback: %w", err)
	}

	return id, nil
}

// ReplaceCashback stores e, first removing the entry that already holds the
// same user, bank, category and period.
func (s *Store) ReplaceCashback(ctx context.Context, e domain.CashbackEntry) (int64, error) {
	const (
		deleteQuery = `
			DELETE FROM cashback
			WHERE user_id = $1 AND bank_id = $2 AND category_id = $3 AND period = $4
		`
		insertQuery = `
			INSERT INTO cashback (user_id, bank_id, category_id, percent, period)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace cashback: %w", err)
	}

	if _, err := tx.ExecContext(ctx, deleteQuery, e.UserID, e.BankID, e.CategoryID, e.Period); err != nil {
		rollback(tx, s.log)
		s.logError(ctx, "failed to clear cashback slot", err, entryAttrs(e)...)
		return 0, fmt.Errorf("delete cashback slot: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, insertQuery, e.UserID, e.BankID, e.CategoryID, e.Percent, e.Period).Scan(&id); err != nil {
		rollback(tx, s.log)
		s.logError(ctx, "failed to insert cashback", err, entryAttrs(e)...)
		return 0, fmt.Errorf("insert cashback: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace cashback: %w", err)
	}

	return id, nil
}

// ListCashbacks returns the user's entries joined with bank and category
// names, ordered by period and bank name.
func (s *Store) ListCashbacks(ctx context.Context, userID int64) ([]domain.CashbackRow, error) {
	const query = `
		SELECT c.period, b.name, cat.name, c.percent
		FROM cashback c
		JOIN banks b ON b.id = c.bank_id
		JOIN categories cat ON cat.id = c.category_id
		WHERE c.user_id = $1
		ORDER BY c.period, b.name, c.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.logError(ctx, "failed to list cashbacks", err, slog.Int64("user_id", userID))
		return nil, fmt.Errorf("select cashbacks: %w", err)
	}
	defer rows.Close()

	var result []domain.CashbackRow
	for rows.Next() {
		var r domain.CashbackRow
		if err := rows.Scan(&r.Period, &r.BankName, &r.CategoryName, &r.Percent); err != nil {
			return nil, fmt.Errorf("scan cashback: %w", err)
		}
		result = append(result, r)
	}

	return result, rows.Err()
}

// ListUserPeriods returns the periods holding an entry for the given user, bank and category.
func (s *Store) ListUserPeriods(ctx context.Context, userID, bankID, categoryID int64) ([]string, error) {
	const query = `
		SELECT period
		FROM cashback
		WHERE user_id = $1 AND bank_id = $2 AND category_id = $3
		ORDER BY period
	`

	rows, err := s.db.QueryContext(ctx, query, userID, bankID, categoryID)
	if err != nil {
		s.logError(ctx, "failed to list periods", err, slog.Int64("user_id", userID))
		return nil, fmt.Errorf("select periods: %w", err)
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

// ListUserEntryPairs returns the user's entries for deletion menus, ordered by id.
func (s *Store) ListUserEntryPairs(ctx context.Context, userID int64) ([]domain.EntryPair, error) {
	const query = `
		SELECT c.id, b.name, cat.name, c.percent
		FROM cashback c
		JOIN banks b ON b.id = c.bank_id
		JOIN categories cat ON cat.id = c.category_id
		WHERE c.user_id = $1
		ORDER BY c.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.logError(ctx, "failed to list entry pairs", err, slog.Int64("user_id", userID))
		return nil, fmt.Errorf("select entry pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.EntryPair
	for rows.Next() {
		var p domain.EntryPair
		if err := rows.Scan(&p.ID, &p.BankName, &p.CategoryName, &p.Percent); err != nil {
			return nil, fmt.Errorf("scan entry pair: %w", err)
		}
		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}

// DeleteEntries removes the given entries of the user and returns how many
// were deleted. Ids owned by other users are ignored.
func (s *Store) DeleteEntries(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM cashback WHERE user_id = $1 AND id IN (` + placeholders(2, len(ids)) + `)`
	args := append([]any{userID}, int64Args(ids)...)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logError(ctx, "failed to delete entries", err, slog.Int64("user_id", userID), slog.Int("count", len(ids)))
		return 0, fmt.Errorf("delete entries: %w", err)
	}

	return res.RowsAffected()
}

// DeleteAllEntries removes every entry of the user.
func (s *Store) DeleteAllEntries(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cashback WHERE user_id = $1`, userID)
	if err != nil {
		s.logError(ctx, "failed to delete all entries", err, slog.Int64("user_id", userID))
		return 0, fmt.Errorf("delete all entries: %w", err)
	}

	return res.RowsAffected()
}

// ListUserCategories returns the distinct categories the user has entries for.
func (s *Store) ListUserCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	const query = `
		SELECT DISTINCT cat.id, cat.name
		FROM cashback c
		JOIN categories cat ON cat.id = c.category_id
		WHERE c.user_id = $1
		ORDER BY cat.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.logError(ctx, "failed to list user categories", err, slog.Int64("user_id", userID))
		return nil, fmt.Errorf("select user categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// DeleteUserCategories removes every entry of the user in the given categories.
func (s *Store) DeleteUserCategories(ctx context.Context, userID int64, categoryIDs []int64) (int64, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}

	query := `DELETE FROM cashback WHERE user_id = $1 AND category_id IN (` + placeholders(2, len(categoryIDs)) + `)`
	args := append([]any{userID}, int64Args(categoryIDs)...)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logError(ctx, "failed to delete user categories", err, slog.Int64("user_id", userID))
		return 0, fmt.Errorf("delete user categories: %w", err)
	}

	return res.RowsAffected()
}

func entryAttrs(e domain.CashbackEntry) []any {
	return []any{
		slog.Int64("user_id", e.UserID),
		slog.Int64("bank_id", e.BankID),
		slog.Int64("category_id", e.CategoryID),
		slog.String("period", e.Period),
	}
}
