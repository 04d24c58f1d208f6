package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender sends plain text messages to operator chats. It implements
// notify.Sender.
type Sender struct {
	api *tgbotapi.BotAPI
}

// NewSender creates a new Sender.
func NewSender(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

// SendMessage sends text to the given chat.
func (s *Sender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
