package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"context-reminder/internal/collection"
	"context-reminder/internal/model"
	"context-reminder/internal/service"
)

// SendDueNotifications pings owners of reminders that fell due since the
// last run. Each reminder is announced once per due date.
func (b *Bot) SendDueNotifications(ctx context.Context) error {
	now := b.now()
	sent, err := b.reminders.CollectDue(ctx, now, func(ctx context.Context, r model.Reminder) error {
		user, err := b.userRepo.FindByID(ctx, r.UserID)
		if err != nil {
			return err
		}

		text := "⏰ <b>Reminder</b>\n" + service.FormatReminder(r, now.In(b.reminders.Location()))
		msg := tgbotapi.NewMessage(user.TelegramID, strings.TrimSpace(text))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = reminderKeyboard(r)
		if _, err := b.api.Send(msg); err != nil {
			return fmt.Errorf("send to %d: %w", user.TelegramID, err)
		}
		return nil
	})
	if sent > 0 {
		b.logger.Info("due reminders sent", "count", sent)
	}
	return err
}

// SendDailyReports sends a digest to every user with open reminders.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		open, err := b.reminders.List(ctx, &user, collection.FilterCriteria{})
		if err != nil {
			b.logger.Error("list reminders for report", "user", user.TelegramID, "error", err)
			continue
		}
		if len(open) == 0 {
			continue
		}

		text, err := b.reminders.Summary(ctx, &user, now)
		if err != nil {
			b.logger.Error("build summary", "user", user.TelegramID, "error", err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.logger.Error("send summary", "user", user.TelegramID, "error", err)
		}
	}
	return nil
}
