package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"context-reminder/internal/calendar"
	"context-reminder/internal/config"
	"context-reminder/internal/model"
	"context-reminder/internal/repository"
	"context-reminder/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageText
	stageDate
	stagePriority
)

const (
	cbTogglePrefix  = "toggle:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
)

// maxListed caps one /list message below Telegram's size limits.
const maxListed = 30

type conversationState struct {
	stage conversationStage
	input service.TextInput
}

type confirmationRequest struct {
	reminderID string
}

// sender is the part of the Telegram API the handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	client        *tgbotapi.BotAPI
	api           sender
	timeout       int
	userRepo      *repository.UserRepository
	reminders     *service.ReminderService
	logger        *slog.Logger
	now           func() time.Time
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(cfg config.TelegramConfig, userRepo *repository.UserRepository, reminders *service.ReminderService, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := newBot(api, userRepo, reminders, logger)
	b.client = api
	b.timeout = cfg.Timeout
	b.logger.Info("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api sender, userRepo *repository.UserRepository, reminders *service.ReminderService, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:           api,
		timeout:       60,
		userRepo:      userRepo,
		reminders:     reminders,
		logger:        logger.With("component", "bot"),
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no telegram client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.timeout
	updates := b.client.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Error("handle callback", "error", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Error("handle message", "error", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.logger.Info("command", "user", msg.From.ID, "command", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		b.logger.Debug("conversation step", "user", msg.From.ID, "stage", state.stage)
		return b.handleConversation(ctx, msg, state)
	}

	if strings.TrimSpace(msg.Text) == "" {
		return b.sendText(msg.Chat.ID, "Send me the reminder as text, for example <i>Call mom tomorrow at 5pm urgent</i>.")
	}
	return b.quickAdd(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "new":
		return b.startNewConversation(ctx, msg)
	case "list":
		return b.handleList(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "edit":
		return b.handleEdit(ctx, msg)
	case "contexts":
		return b.handleContexts(ctx, msg)
	case "export":
		return b.handleExport(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>How to use</b>\n" +
	"Just type a reminder: <i>Buy milk tomorrow at 5pm urgent</i>. " +
	"Dates (today, tomorrow, next week), times (at 5pm, 14:30), priority words " +
	"(urgent, important, medium, low) and context words (work, home, buy, meeting, call, email) are picked up.\n\n" +
	"• /new — add a reminder step by step\n" +
	"• /list [#context] [!priority] [src:source] [all] [text] — show reminders\n" +
	"• /done &lt;id&gt; — mark done or reopen\n" +
	"• /edit &lt;id&gt; &lt;text&gt; — rewrite a reminder\n" +
	"• /delete &lt;id&gt; — delete a reminder\n" +
	"• /contexts — contexts in use\n" +
	"• /export — download an .ics file\n" +
	"• /report — digest right now\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👋 Hi, %s!\n<b>I keep your reminders.</b>\n\n%s", escape(user.DisplayName()), helpText))
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

// replyError turns expected service errors into a chat message and
// reports everything else to the caller.
func (b *Bot) replyError(chatID int64, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return b.sendText(chatID, "Reminder not found.")
	case errors.Is(err, repository.ErrAmbiguousID):
		return b.sendText(chatID, "Several reminders match that id. Type more characters.")
	case errors.Is(err, service.ErrEmptyTitle):
		return b.sendText(chatID, "A reminder needs some text besides the date and priority.")
	case errors.Is(err, calendar.ErrNothingToExport):
		return b.sendText(chatID, "Nothing to export yet.")
	default:
		if sendErr := b.sendText(chatID, "Something went wrong, try again later."); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		return err
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ackCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.logger.Warn("callback ack", "error", err)
	}
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
