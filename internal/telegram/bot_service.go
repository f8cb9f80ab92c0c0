// Package telegram handles the integration with the Telegram Bot API.
// The staff chat receives an announcement for every new complaint and can
// query complaint state with bot commands.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/models"
	"smartpothole/backend/internal/storage"
)

// BotAPI is the subset of *tgbotapi.BotAPI the service relies on.
type BotAPI interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ComplaintReader is satisfied by storage.Storage.
type ComplaintReader interface {
	Scan(ctx context.Context) ([]models.Complaint, error)
	Get(ctx context.Context, id string) (*models.Complaint, error)
}

// NewBotAPI authorizes against Telegram with token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return bot, nil
}

// BotService answers read-only commands posted in the staff chat.
// Messages from any other chat are ignored.
type BotService struct {
	BotAPI      BotAPI
	Complaints  ComplaintReader
	StaffChatID int64
	logger      *zap.Logger
}

func NewBotService(bot BotAPI, complaints ComplaintReader, staffChatID int64, logger *zap.Logger) *BotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotService{
		BotAPI:      bot,
		Complaints:  complaints,
		StaffChatID: staffChatID,
		logger:      logger.Named("telegram"),
	}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx
// is cancelled.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	defer s.BotAPI.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.Chat.ID != s.StaffChatID {
		return
	}

	var reply string
	switch msg.Command() {
	case "status":
		reply = s.statusReply(ctx, strings.TrimSpace(msg.CommandArguments()))
	case "summary":
		reply = s.summaryReply(ctx)
	case "help", "start":
		reply = "Commands:\n/status <complaint id> - current state of a complaint\n/summary - complaint counts by status"
	default:
		return
	}

	if _, err := s.BotAPI.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		s.logger.Warn("failed to reply to staff command",
			zap.String("command", msg.Command()),
			zap.Error(err))
	}
}

func (s *BotService) statusReply(ctx context.Context, id string) string {
	if id == "" {
		return "Usage: /status <complaint id>"
	}
	c, err := s.Complaints.Get(ctx, id)
	if errors.Is(err, storage.ErrComplaintNotFound) || errors.Is(err, storage.ErrStoreNotFound) {
		return fmt.Sprintf("Complaint %s not found", id)
	}
	if err != nil {
		s.logger.Error("status lookup failed", zap.String("complaint_id", id), zap.Error(err))
		return "Lookup failed, try again later"
	}

	assignee := c.AssignedTo
	if assignee == "" {
		assignee = "unassigned"
	}
	return fmt.Sprintf("%s\nStatus: %s\nAssigned to: %s\nLocation: %s\nLast updated: %s",
		c.ComplaintID, c.Status, assignee, c.LocationDescription, c.LastUpdated)
}

func (s *BotService) summaryReply(ctx context.Context) string {
	all, err := s.Complaints.Scan(ctx)
	if errors.Is(err, storage.ErrStoreNotFound) {
		all = nil
	} else if err != nil {
		s.logger.Error("summary scan failed", zap.Error(err))
		return "Lookup failed, try again later"
	}

	counts := make(map[string]int, len(config.AllowedStatuses))
	for _, c := range all {
		counts[c.Status]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total complaints: %d", len(all))
	for _, status := range config.AllowedStatuses {
		fmt.Fprintf(&b, "\n%s: %d", status, counts[status])
		delete(counts, status)
	}
	others := make([]string, 0, len(counts))
	for status := range counts {
		others = append(others, status)
	}
	sort.Strings(others)
	for _, status := range others {
		fmt.Fprintf(&b, "\n%s: %d", status, counts[status])
	}
	return b.String()
}
