package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"context-reminder/internal/model"
)

const (
	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Delete"
	btnCancel       = "↩️ Keep"
	btnCancelDialog = "⏪ Cancel input"
	btnHigh         = "🔥 High"
	btnMedium       = "🔸 Medium"
	btnLow          = "🔹 Low"
	menuLabelNew    = "➕ New reminder"
	menuLabelList   = "📋 Reminders"
	menuLabelReport = "🗞 Digest"
	menuLabelHelp   = "ℹ️ Help"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNew),
			tgbotapi.NewKeyboardButton(menuLabelList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelReport),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnHigh),
			tgbotapi.NewKeyboardButton(btnMedium),
			tgbotapi.NewKeyboardButton(btnLow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// confirmKeyboard asks inline; typed answers are accepted too.
func confirmKeyboard(reminderID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnConfirm, cbConfirmPrefix+reminderID),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancelPrefix+reminderID),
		),
	)
}

func reminderKeyboard(r model.Reminder) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(reminderRow(r))
}

func reminderRow(r model.Reminder) []tgbotapi.InlineKeyboardButton {
	label := "✅ " + shortTitle(r.Title, 24)
	if r.Completed {
		label = "↩️ " + shortTitle(r.Title, 24)
	}
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label, cbTogglePrefix+r.ID),
		tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+r.ID),
	)
}
