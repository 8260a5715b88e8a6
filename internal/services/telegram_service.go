package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"expertgate/internal/models"
)

// OpsNotifier posts short operational alerts to the team chat.
type OpsNotifier interface {
	NotifySupportTicket(t models.SupportTicket) error
}

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramService struct {
	bot    botSender
	chatID int64
}

// NewTelegramService talks to the Bot API once (getMe) to validate the token.
func NewTelegramService(botToken string, chatID int64) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramService{bot: bot, chatID: chatID}, nil
}

func (t *TelegramService) NotifySupportTicket(ticket models.SupportTicket) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return nil
	}
	text := fmt.Sprintf("New support ticket %s\nFrom: %s <%s>\nSubject: %s",
		ticket.ID, ticket.Name, ticket.Email, ticket.Subject)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
