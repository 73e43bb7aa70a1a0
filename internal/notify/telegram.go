package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends notifications to a Telegram chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramNotifier{
		api:    bot,
		chatID: chatID,
	}, nil
}

// Name implements Notifier.
func (t *TelegramNotifier) Name() string { return "telegram" }

// Send implements Notifier.
func (t *TelegramNotifier) Send(_ context.Context, n Notification) error {
	text := fmt.Sprintf("*%s*\n%s", n.Title, n.Message)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sending telegram notification: %w", err)
	}
	return nil
}
