package services

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expertgate/internal/models"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegramService_NotifySupportTicket(t *testing.T) {
	bot := &fakeBot{}
	svc := &TelegramService{bot: bot, chatID: -100123}

	err := svc.NotifySupportTicket(models.SupportTicket{ID: "t-1", Name: "Sam", Email: "sam@x.com", Subject: "Billing"})
	require.NoError(t, err)

	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Contains(t, msg.Text, "t-1")
	assert.Contains(t, msg.Text, "sam@x.com")
}

func TestTelegramService_SendError(t *testing.T) {
	svc := &TelegramService{bot: &fakeBot{err: errors.New("429")}, chatID: 1}
	assert.Error(t, svc.NotifySupportTicket(models.SupportTicket{ID: "t-1"}))
}

func TestTelegramService_Disabled(t *testing.T) {
	var nilSvc *TelegramService
	assert.NoError(t, nilSvc.NotifySupportTicket(models.SupportTicket{}))

	bot := &fakeBot{}
	noChat := &TelegramService{bot: bot}
	assert.NoError(t, noChat.NotifySupportTicket(models.SupportTicket{}))
	assert.Empty(t, bot.sent)
}
