package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/i18n"
)

// Categories manages the shared category list.
type Categories interface {
	Categories(ctx context.Context) (string, error)
	AddCategory(ctx context.Context, name string) (string, error)
	DeleteCategory(ctx context.Context, id int64) (string, error)
}

// AdminOnly restricts a handler to the configured administrators.
func AdminOnly(isAdmin func(userID int64) bool, t i18n.Translator, log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next Handler) Handler {
		return func(c telebot.Context) error {
			sender := c.Sender()
			if sender == nil || !isAdmin(sender.ID) {
				if sender != nil {
					log.WarnContext(Context(c), "admin command rejected", slog.Int64("user_id", sender.ID), slog.String("text", c.Text()))
				}
				return c.Send(t.T("admin.forbidden"))
			}
			return next(c)
		}
	}
}

// NewListCategoriesHandler handles /categories.
func NewListCategoriesHandler(categories Categories) Handler {
	return func(c telebot.Context) error {
		text, err := categories.Categories(Context(c))
		if err != nil {
			return err
		}
		return c.Send(text)
	}
}

// NewAddCategoryHandler handles /addcategory <name>.
func NewAddCategoryHandler(categories Categories, t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		name := commandArgs(c.Text())
		if name == "" {
			return c.Send(t.T("admin.add_usage"))
		}

		text, err := categories.AddCategory(Context(c), name)
		if err != nil {
			return err
		}
		return c.Send(text)
	}
}

// NewDeleteCategoryHandler handles /delcategory <id>.
func NewDeleteCategoryHandler(categories Categories, t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		id, err := strconv.ParseInt(commandArgs(c.Text()), 10, 64)
		if err != nil || id <= 0 {
			return c.Send(t.T("admin.del_usage"))
		}

		text, err := categories.DeleteCategory(Context(c), id)
		if err != nil {
			return err
		}
		return c.Send(text)
	}
}

// commandArgs returns the text after the command word.
func commandArgs(text string) string {
	_, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(args)
}
