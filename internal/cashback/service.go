// Package cashback serves cashback reports and category management.
package cashback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Proton-105/cashback-bot/internal/domain"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/internal/report"
	"github.com/Proton-105/cashback-bot/internal/repository"
)

const maxCategoryName = 64

// Store is the data the service reads and writes.
type Store interface {
	ListCashbacks(ctx context.Context, userID int64) ([]domain.CashbackRow, error)
	FindUser(ctx context.Context, userID int64) (*domain.User, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	AddCategory(ctx context.Context, name string) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Service builds reports and manages the category list.
type Service struct {
	store     Store
	formatter *report.Formatter
	t         i18n.Translator
	log       *slog.Logger
}

// NewService creates a Service.
func NewService(store Store, t i18n.Translator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store:     store,
		formatter: report.NewFormatter(t),
		t:         t,
		log:       log,
	}
}

// MyReport returns the formatted report of the user's own entries.
func (s *Service) MyReport(ctx context.Context, userID int64) (string, error) {
	rows, err := s.store.ListCashbacks(ctx, userID)
	if err != nil {
		return "", apperrors.NewDatabaseError("list cashbacks", err)
	}

	return s.formatter.Format(rows), nil
}

// SharedReport returns the user's report followed by the friend's one, each
// as a separate message. Without a linked friend a single notice is returned.
func (s *Service) SharedReport(ctx context.Context, userID int64) ([]string, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewDatabaseError("find user", err)
	}
	if user == nil || !user.HasFriend() {
		return []string{s.t.T("friend.none")}, nil
	}

	mine, err := s.MyReport(ctx, userID)
	if err != nil {
		return nil, err
	}

	theirs, err := s.MyReport(ctx, *user.FriendID)
	if err != nil {
		return nil, err
	}

	return []string{
		s.t.T("report.mine") + "\n" + mine,
		s.t.T("report.friend") + "\n" + theirs,
	}, nil
}

// Categories lists the categories with their ids.
func (s *Service) Categories(ctx context.Context) (string, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return "", apperrors.NewDatabaseError("list categories", err)
	}

	var b strings.Builder
	b.WriteString(s.t.T("admin.categories"))
	for _, c := range categories {
		fmt.Fprintf(&b, "\n%d. %s", c.ID, c.Name)
	}
	return b.String(), nil
}

// AddCategory creates a category and returns the confirmation text.
func (s *Service) AddCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCategoryName {
		return "", apperrors.NewValidationError("category name must be 1-64 characters")
	}

	category, err := s.store.AddCategory(ctx, name)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return "", apperrors.NewValidationError(fmt.Sprintf("category %q already exists", name))
	}
	if err != nil {
		return "", apperrors.NewDatabaseError("add category", err)
	}

	s.log.InfoContext(ctx, "category added", slog.Int64("category_id", category.ID), slog.String("name", category.Name))
	return i18n.Tf(s.t, "admin.category_added", category.Name, category.ID), nil
}

// DeleteCategory removes a category together with the entries that use it.
func (s *Service) DeleteCategory(ctx context.Context, id int64) (string, error) {
	err := s.store.DeleteCategory(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.NewValidationError(fmt.Sprintf("category %d not found", id))
	}
	if err != nil {
		return "", apperrors.NewDatabaseError("delete category", err)
	}

	s.log.InfoContext(ctx, "category deleted", slog.Int64("category_id", id))
	return s.t.T("admin.category_deleted"), nil
}
