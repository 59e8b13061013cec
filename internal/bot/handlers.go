package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"context-reminder/internal/calendar"
	"context-reminder/internal/collection"
	"context-reminder/internal/model"
	"context-reminder/internal/parser"
	"context-reminder/internal/service"
)

func (b *Bot) quickAdd(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	source := model.SourceText
	if msg.ForwardDate != 0 {
		source = model.SourceMessage
	}

	reminder, err := b.reminders.CreateFromText(ctx, user, service.TextInput{Text: msg.Text, Source: source}, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	b.logger.Info("reminder created", "id", reminder.ID, "user", user.ID, "source", reminder.Source)
	return b.sendSaved(msg.Chat.ID, reminder, msg.Text)
}

func (b *Bot) startNewConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageText})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New reminder.\n<b>Step 1:</b> what should I remind you about?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageText:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send the reminder as text.", cancelKeyboard())
		}
		state.input.Text = text
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID,
			"⏰ <b>Step 2:</b> when? Send <code>2025-11-30</code>, <code>2025-11-30 18:00</code> or <code>18:00</code>, "+
				"or skip to keep what I read from the text.", skipKeyboard())
	case stageDate:
		if !isSkipInput(text) {
			date, clock, err := parseExplicitDate(text, b.reminders.Location())
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2025-11-30 18:00</code> or skip.", skipKeyboard())
			}
			state.input.Overrides.Date = date
			state.input.Overrides.Clock = clock
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔥 <b>Step 3:</b> priority?", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			priority, ok := parsePriorityInput(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick a priority from the keyboard or skip.", priorityKeyboard())
			}
			state.input.Overrides.Priority = priority
		}
		b.clearConversation(msg.From.ID)
		return b.finishCreation(ctx, msg, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Start again with /new.")
	}
}

func (b *Bot) finishCreation(ctx context.Context, msg *tgbotapi.Message, input service.TextInput) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	reminder, err := b.reminders.CreateFromText(ctx, user, input, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	b.logger.Info("reminder created", "id", reminder.ID, "user", user.ID, "source", reminder.Source)
	return b.sendSaved(msg.Chat.ID, reminder, input.Text)
}

// sendSaved confirms a new reminder and lists the phrases read from source.
func (b *Bot) sendSaved(chatID int64, r *model.Reminder, source string) error {
	now := b.now().In(b.reminders.Location())
	text := "✅ <b>Saved</b>\n" + service.FormatReminder(*r, now)
	if kw := parser.Parse(source, now).Keywords; len(kw) > 0 {
		text += "\n🔎 <i>picked up: " + escape(strings.Join(kw, " · ")) + "</i>"
	}
	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(text))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = reminderKeyboard(*r)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	criteria := parseFilterArgs(msg.CommandArguments())
	return b.sendList(ctx, msg.Chat.ID, user, criteria)
}

func (b *Bot) sendList(ctx context.Context, chatID int64, user *model.User, criteria collection.FilterCriteria) error {
	groups, err := b.reminders.Grouped(ctx, user, criteria)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(groups) == 0 {
		if criteria.IsZero() {
			return b.sendText(chatID, "No reminders yet. Just type one, like <i>Pay rent tomorrow</i>.")
		}
		return b.sendText(chatID, "Nothing matches.")
	}

	now := b.now().In(b.reminders.Location())

	var builder strings.Builder
	builder.WriteString("📋 <b>Reminders</b>\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	listed, total := 0, 0
	for _, group := range groups {
		total += len(group.Reminders)
		if listed >= maxListed {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", escape(service.DateLabel(group.Key, now))))
		for _, r := range group.Reminders {
			if listed >= maxListed {
				break
			}
			builder.WriteString(service.FormatReminder(r, now))
			buttons = append(buttons, reminderRow(r))
			listed++
		}
	}
	if total > listed {
		builder.WriteString(fmt.Sprintf("\n…and %d more. Narrow the list with filters, see /help.", total-listed))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return b.sendText(msg.Chat.ID, "Give me the reminder id: /done 1a2b3c4d")
	}
	return b.toggle(ctx, msg.Chat.ID, msg.From, ref)
}

func (b *Bot) toggle(ctx context.Context, chatID int64, from *tgbotapi.User, ref string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	reminder, err := b.reminders.Toggle(ctx, user, ref)
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.logger.Info("reminder toggled", "id", reminder.ID, "user", user.ID, "completed", reminder.Completed)

	if reminder.Completed {
		return b.sendText(chatID, fmt.Sprintf("✅ «%s» done.", escape(normalizeTitle(reminder.Title))))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ «%s» is open again.", escape(normalizeTitle(reminder.Title))))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return b.sendText(msg.Chat.ID, "Give me the reminder id: /delete 1a2b3c4d")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, ref)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, ref string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	reminder, err := b.reminders.Resolve(ctx, user, ref)
	if err != nil {
		return b.replyError(chatID, err)
	}

	b.setConfirmation(from.ID, confirmationRequest{reminderID: reminder.ID})
	text := fmt.Sprintf("Delete «%s» (<code>%s</code>)?", escape(normalizeTitle(reminder.Title)), reminder.ShortID())
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard(reminder.ID))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteReminder(ctx, msg.Chat.ID, msg.From, req.reminderID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Kept it.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard(req.reminderID))
	}
}

func (b *Bot) deleteReminder(ctx context.Context, chatID int64, from *tgbotapi.User, ref string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	reminder, err := b.reminders.Resolve(ctx, user, ref)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if err := b.reminders.Delete(ctx, user, reminder.ID); err != nil {
		return b.replyError(chatID, err)
	}

	b.logger.Info("reminder deleted", "id", reminder.ID, "user", user.ID)
	return b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(normalizeTitle(reminder.Title))))
}

func (b *Bot) handleEdit(ctx context.Context, msg *tgbotapi.Message) error {
	ref, text, _ := strings.Cut(strings.TrimSpace(msg.CommandArguments()), " ")
	text = strings.TrimSpace(text)
	if ref == "" || text == "" {
		return b.sendText(msg.Chat.ID, "Usage: /edit &lt;id&gt; &lt;new text&gt;, for example /edit 1a2b3c4d Call mom today at 6pm")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	reminder, err := b.reminders.UpdateFromText(ctx, user, ref, text, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	b.logger.Info("reminder updated", "id", reminder.ID, "user", user.ID)

	body := "✏️ <b>Updated</b>\n" + service.FormatReminder(*reminder, b.now().In(b.reminders.Location()))
	return b.sendText(msg.Chat.ID, strings.TrimSpace(body))
}

func (b *Bot) handleContexts(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	contexts, err := b.reminders.Contexts(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if len(contexts) == 0 {
		return b.sendText(msg.Chat.ID, "No contexts yet. Words like <i>work</i>, <i>buy</i> or <i>call</i> in a reminder set one.")
	}

	var builder strings.Builder
	builder.WriteString("📂 <b>Contexts</b>\n")
	for _, c := range contexts {
		builder.WriteString(fmt.Sprintf("• %s <code>/list #%s</code>\n", contextLabel(c), escape(c)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	criteria := parseFilterArgs(msg.CommandArguments())
	criteria.IncludeCompleted = true
	reminders, err := b.reminders.List(ctx, user, criteria)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	data, err := calendar.Render(reminders, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: "reminders.ics", Bytes: data})
	doc.Caption = fmt.Sprintf("📤 %d reminders. Open the file with your calendar app.", len(reminders))
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send export: %w", err)
	}
	b.logger.Info("reminders exported", "user", user.ID, "count", len(reminders))
	return nil
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminders.Summary(ctx, user, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNew):
		return true, b.startNewConversation(ctx, msg)
	case strings.ToLower(menuLabelList):
		return true, b.handleList(ctx, msg)
	case strings.ToLower(menuLabelReport):
		return true, b.handleReport(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.logger.Info("callback", "user", cb.From.ID, "data", data)

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		b.ackCallback(cb, "")
		return b.toggle(ctx, chatID, cb.From, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		b.ackCallback(cb, "")
		return b.askDeleteConfirmation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbConfirmPrefix):
		b.ackCallback(cb, "")
		b.clearConfirmation(cb.From.ID)
		return b.deleteReminder(ctx, chatID, cb.From, strings.TrimPrefix(data, cbConfirmPrefix))
	case strings.HasPrefix(data, cbCancelPrefix):
		b.ackCallback(cb, "Kept it")
		b.clearConfirmation(cb.From.ID)
		return nil
	default:
		b.ackCallback(cb, "")
		return nil
	}
}
