package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramAPI is the subset of the bot API the sender needs.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts cancellation notices to an admin channel.
type TelegramSender struct {
	api    TelegramAPI
	chatID int64
}

// NewTelegramSender builds a sender from a bot token and target chat.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{api: api, chatID: chatID}, nil
}

// NewTelegramSenderWithAPI is used by tests to inject a fake API.
func NewTelegramSenderWithAPI(api TelegramAPI, chatID int64) *TelegramSender {
	return &TelegramSender{api: api, chatID: chatID}
}

func (s *TelegramSender) Send(_ context.Context, n Notice) error {
	msg := tgbotapi.NewMessage(s.chatID, FormatNotice(n))
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// LogSender writes notices to the log. Used when no Telegram channel is
// configured.
type LogSender struct {
	Logger *zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, n Notice) error {
	s.Logger.Info().
		Str("reservation_id", n.Reservation.ID).
		Str("student_id", n.Reservation.StudentID).
		Str("canteen", n.CanteenName).
		Str("reason", n.Reason).
		Msg("reservation cancelled")
	return nil
}
