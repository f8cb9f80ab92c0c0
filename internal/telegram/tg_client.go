package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smartpothole/backend/internal/localization"
	"smartpothole/backend/internal/notify"
)

const keyNewComplaint = "telegram.new_complaint"

// Sender is the part of *tgbotapi.BotAPI used to post messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// StaffNotifier announces new complaints in the municipal staff chat.
type StaffNotifier struct {
	bot       Sender
	chatID    int64
	localizer *localization.Localizer
	lang      string
}

func NewStaffNotifier(bot Sender, chatID int64, localizer *localization.Localizer, lang string) *StaffNotifier {
	if lang == "" {
		lang = localization.DefaultLang
	}
	return &StaffNotifier{bot: bot, chatID: chatID, localizer: localizer, lang: lang}
}

func (s *StaffNotifier) Name() string { return "telegram" }

func (s *StaffNotifier) Notify(ctx context.Context, n notify.Notification) error {
	if s.chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, s.localizer.Format(s.lang, keyNewComplaint, n.Vars()))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send staff message for %s: %w", n.ComplaintID, err)
	}
	return nil
}
