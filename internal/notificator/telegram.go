package notificator

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgModels "github.com/go-telegram/bot/models"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
)

// StatsSource answers the /stats command.
type StatsSource interface {
	SystemAnalytics(ctx context.Context, includeComparison bool) (*models.SystemAnalyticsResponse, error)
}

type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot

	stats StatsSource
}

func NewTelegramNotificator(logger *logger.Logger, token string, stats StatsSource) (*TelegramNotificator, error) {
	provider := &TelegramNotificator{
		logger: logger.Named("telegram"),
		stats:  stats,
	}
	opts := []bot.Option{
		bot.WithDefaultHandler(provider.handler),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	provider.bot = b

	return provider, nil
}

// Start polls for updates until ctx is cancelled.
func (t *TelegramNotificator) Start(ctx context.Context) {
	go t.bot.Start(ctx)
}

func (t *TelegramNotificator) SendNotification(ctx context.Context, chatID, message string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   message,
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (t *TelegramNotificator) handler(ctx context.Context, b *bot.Bot, update *tgModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	t.logger.Debug("Telegram update", "username", update.Message.From.Username, "text", update.Message.Text)

	chatID := fmt.Sprint(update.Message.Chat.ID)
	reply, ok := t.reply(ctx, update.Message.Text, chatID)
	if !ok {
		return
	}
	if err := t.SendNotification(ctx, chatID, reply); err != nil {
		t.logger.Error("Failed to answer telegram command", "chat_id", chatID, "error", err)
	}
}

// reply builds the answer to a bot command; ok is false for anything that is
// not a known command.
func (t *TelegramNotificator) reply(ctx context.Context, text, chatID string) (string, bool) {
	switch strings.TrimSpace(strings.SplitN(text, "@", 2)[0]) {
	case "/start":
		return "Property QR service notifications.\nSet TELEGRAM_CHAT_ID=" + chatID + " to receive operational reports here.", true
	case "/stats":
		if t.stats == nil {
			return "Analytics are not available.", true
		}
		resp, err := t.stats.SystemAnalytics(ctx, false)
		if err != nil {
			t.logger.Error("Failed to load system analytics", "error", err)
			return "Failed to load analytics.", true
		}
		return statsMessage(resp.Analytics), true
	default:
		return "", false
	}
}

func statsMessage(a *models.SystemAnalytics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Properties with QR: %d\n", a.PropertiesWithQr)
	fmt.Fprintf(&b, "Scans today: %d\n", a.TotalScansToday)
	fmt.Fprintf(&b, "Scans this week: %d\n", a.TotalScansThisWeek)
	fmt.Fprintf(&b, "Scans this month: %d\n", a.TotalScansThisMonth)
	fmt.Fprintf(&b, "Scans all time: %d\n", a.TotalScansAllTime)
	fmt.Fprintf(&b, "Average scans per property: %.2f", a.AverageScansPerProperty)
	for i, p := range a.TopPerformingProperties {
		if i == 0 {
			b.WriteString("\nTop properties:")
		}
		fmt.Fprintf(&b, "\n%d. %s (%d scans)", i+1, p.PropertyName, p.TotalScans)
	}
	return b.String()
}
