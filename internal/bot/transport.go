package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Transport delivers outbound messages and documents to chat users.
// Implementations must be safe for concurrent use.
type Transport interface {
	SendMessage(chatID int64, text string) error
	SendKeyboard(chatID int64, text string, buttons [][]string) error
	SendDocument(chatID int64, filename string, data []byte) error
}

// TelegramTransport implements Transport over the Telegram Bot API
type TelegramTransport struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegramTransport authorizes the bot with Telegram
func NewTelegramTransport(token string, debug bool, logger *zap.Logger) (*TelegramTransport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}
	api.Debug = debug

	logger.Info("telegram_authorized", zap.String("username", api.Self.UserName))

	return &TelegramTransport{api: api, logger: logger}, nil
}

// Updates starts long polling and returns the inbound update channel
func (t *TelegramTransport) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	return t.api.GetUpdatesChan(u)
}

// Stop ends long polling
func (t *TelegramTransport) Stop() {
	t.api.StopReceivingUpdates()
}

// SendMessage sends a plain text reply
func (t *TelegramTransport) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendKeyboard sends a text reply with a persistent reply keyboard
func (t *TelegramTransport) SendKeyboard(chatID int64, text string, buttons [][]string) error {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		kbRow := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			kbRow = append(kbRow, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, kbRow)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send keyboard: %w", err)
	}
	return nil
}

// SendDocument uploads a file from memory as a document
func (t *TelegramTransport) SendDocument(chatID int64, filename string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	if _, err := t.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}
