package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
)

// TelegramUI is the human approval surface: every generated post is sent to
// the operator with approve / regenerate / skip buttons before the
// orchestrator is allowed to touch the platform.
type TelegramUI struct {
	Bot      *tgbotapi.BotAPI
	ChatID   int64
	channels map[string]chan ports.UserAction
	mu       sync.Mutex
}

func NewTelegramUI(token string, chatIDStr string) (*TelegramUI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %w", err)
	}

	ui := &TelegramUI{
		Bot:      bot,
		ChatID:   chatID,
		channels: make(map[string]chan ports.UserAction),
	}

	go ui.listen()
	return ui, nil
}

var _ ports.Interaction = (*TelegramUI)(nil)

func (ui *TelegramUI) listen() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := ui.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery == nil {
			continue
		}

		callback := update.CallbackQuery
		action := ports.UserAction(callback.Data)

		ui.mu.Lock()
		for msgID, ch := range ui.channels {
			ch <- action
			delete(ui.channels, msgID)

			callbackConfig := tgbotapi.NewCallback(callback.ID, "choice recorded: "+string(action))
			ui.Bot.Request(callbackConfig)

			edit := tgbotapi.NewEditMessageReplyMarkup(ui.ChatID, update.CallbackQuery.Message.MessageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
			ui.Bot.Send(edit)
			break
		}
		ui.mu.Unlock()
	}
}

// Confirm sends the preview and blocks until the operator picks an action
// or the context is cancelled.
func (ui *TelegramUI) Confirm(ctx context.Context, title, body string) (ports.UserAction, error) {
	safeTitle := escapeMarkdown(title)
	safeBody := escapeMarkdown(body)

	msgText := fmt.Sprintf("*[%s]*\n\n%s", safeTitle, safeBody)
	msg := tgbotapi.NewMessage(ui.ChatID, msgText)
	msg.ParseMode = "Markdown"

	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", string(ports.ActionApprove)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Regenerate", string(ports.ActionRegenerate)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Skip", string(ports.ActionSkip)),
		),
	)

	sentMsg, err := ui.Bot.Send(msg)
	if err != nil {
		return ports.ActionSkip, err
	}

	respCh := make(chan ports.UserAction)
	msgKey := fmt.Sprintf("%d", sentMsg.MessageID)

	ui.mu.Lock()
	ui.channels[msgKey] = respCh
	ui.mu.Unlock()

	select {
	case action := <-respCh:
		return action, nil
	case <-ctx.Done():
		return ports.ActionSkip, ctx.Err()
	}
}

// escapeMarkdown guards against Telegram markdown parse errors in
// generated content.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
