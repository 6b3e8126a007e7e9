package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// Reports builds cashback reports.
type Reports interface {
	MyReport(ctx context.Context, userID int64) (string, error)
	SharedReport(ctx context.Context, userID int64) ([]string, error)
}

// NewMyReportHandler sends the user's own cashback report.
func NewMyReportHandler(reports Reports) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		text, err := reports.MyReport(Context(c), sender.ID)
		if err != nil {
			return err
		}
		return c.Send(text)
	}
}

// NewSharedReportHandler sends the user's report followed by the friend's.
func NewSharedReportHandler(reports Reports) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		messages, err := reports.SharedReport(Context(c), sender.ID)
		if err != nil {
			return err
		}

		for _, text := range messages {
			if err := c.Send(text); err != nil {
				return err
			}
		}
		return nil
	}
}
