package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zeprog/absentee-table/internal/session"
	"github.com/zeprog/absentee-table/internal/sheets"
	"github.com/zeprog/absentee-table/internal/store"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Router wires Telegram updates to the conversation flows.
type Router struct {
	bot      Bot
	log      *zap.Logger
	repo     store.Repo
	sheets   sheets.Gateway
	sessions *session.Manager
}

// peer identifies who an update came from and where to reply.
type peer struct {
	chatID   int64
	userID   int64
	username string
}

// NewRouter creates a new Telegram router.
func NewRouter(bot Bot, log *zap.Logger, repo store.Repo, gw sheets.Gateway, sessions *session.Manager) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		sheets:   gw,
		sessions: sessions,
	}
}

// RegisterCommands publishes the command menu.
func (r *Router) RegisterCommands() error {
	_, err := r.bot.Request(tgbotapi.NewSetMyCommands(botCommands...))
	return err
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		r.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	p := peer{chatID: msg.Chat.ID, userID: msg.From.ID, username: msg.From.UserName}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			r.handleStart(ctx, p)
		case "change_class":
			r.handleChangeClass(ctx, p)
		case "set_reminder":
			r.handleSetReminder(ctx, p)
		case "read":
			r.handleRead(ctx, p)
		case "cancel":
			r.handleCancel(ctx, p)
		case "help":
			r.sendText(p.chatID, helpText)
		default:
			r.sendText(p.chatID, unknownCmdText)
		}
		return
	}

	switch r.sessions.State(p.userID) {
	case session.AwaitingClass:
		r.onClassText(ctx, p, msg.Text)
	case session.AwaitingTime:
		r.onTimeText(ctx, p, msg.Text)
	case session.AwaitingSheetChoice:
		r.sendText(p.chatID, useButtonsText)
	case session.AwaitingAbsenteeList:
		r.onAbsenteesText(ctx, p, msg.Text)
	default:
		// No flow in progress: ignore free-form text
	}
}

func (r *Router) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if err := r.answerCallback(cq.ID, ""); err != nil {
		r.log.Debug("answer callback failed", zap.Error(err), zap.String("callbackID", cq.ID))
	}
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	p := peer{chatID: cq.Message.Chat.ID, userID: cq.From.ID, username: cq.From.UserName}
	cb := parseCallback(cq.Data)
	state := r.sessions.State(p.userID)

	switch {
	case cb.kind == cbConfirm:
		r.handleConfirmation(ctx, p, cb.value)
	case cb.kind == cbTime && state == session.AwaitingTime:
		r.chooseTime(ctx, p, cb.value, cq.Message.MessageID)
	case state == session.AwaitingSheetChoice && (cb.kind == cbAbsenceSheet || cb.kind == cbReadSheet):
		r.chooseSheet(ctx, p, cb.value, cq.Message.MessageID)
	case cb.kind == cbReadSheet:
		r.displaySheet(ctx, p, cb.value)
	default:
		r.sendText(p.chatID, staleButtonText)
	}
}

// SendConfirmation pushes the daily yes/no prompt.
// This makes Router satisfy scheduler.Sender.
func (r *Router) SendConfirmation(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, confirmText)
	msg.ReplyMarkup = confirmKeyboard()
	_, err := r.bot.Send(msg)
	return err
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	sent, err := r.bot.Send(msg)
	if err != nil {
		r.log.Warn("send failed", zap.Error(err), zap.Int64("chatID", chatID))
		return 0, err
	}
	return sent.MessageID, nil
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// retractPrompt removes the inline buttons of an answered prompt.
func (r *Router) retractPrompt(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, emptyKeyboard())
	if _, err := r.bot.Request(edit); err != nil {
		r.log.Debug("retract prompt failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}
