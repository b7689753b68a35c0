package notificator

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
)

type fakeTelegram struct {
	chatIDs  []string
	messages []string
	err      error
	panics   bool
}

func (f *fakeTelegram) SendNotification(_ context.Context, chatID, message string) error {
	if f.panics {
		panic("telegram exploded")
	}
	f.chatIDs = append(f.chatIDs, chatID)
	f.messages = append(f.messages, message)
	return f.err
}

type fakeEmail struct {
	to       []string
	subjects []string
}

func (f *fakeEmail) SendNotification(to, subject, _ string) error {
	f.to = append(f.to, to)
	f.subjects = append(f.subjects, subject)
	return nil
}

func TestNotifyFansOutToConfiguredChannels(t *testing.T) {
	tg := &fakeTelegram{}
	mail := &fakeEmail{}
	n := NewNotificator(logger.NewNopLogger()).
		WithTelegram(tg, "42").
		WithEmail(mail, "ops@daobitat.xyz")

	n.Notify(context.Background(), "Expired QR codes regenerated", "Requested: 2")

	assert.Equal(t, []string{"42"}, tg.chatIDs)
	assert.Equal(t, []string{"Expired QR codes regenerated\n\nRequested: 2"}, tg.messages)
	assert.Equal(t, []string{"ops@daobitat.xyz"}, mail.to)
	assert.Equal(t, []string{"Expired QR codes regenerated"}, mail.subjects)
}

func TestNotifySkipsChannelsWithoutTarget(t *testing.T) {
	tg := &fakeTelegram{}
	mail := &fakeEmail{}
	n := NewNotificator(logger.NewNopLogger()).
		WithTelegram(tg, "").
		WithEmail(mail, "ops@daobitat.xyz")

	n.Notify(context.Background(), "subject", "body")

	assert.Empty(t, tg.chatIDs)
	assert.Len(t, mail.to, 1)
	assert.True(t, n.Enabled())
	assert.False(t, NewNotificator(logger.NewNopLogger()).Enabled())
}

func TestNotifySurvivesFailingChannel(t *testing.T) {
	tests := []struct {
		name string
		tg   *fakeTelegram
	}{
		{"error", &fakeTelegram{err: errors.New("network down")}},
		{"panic", &fakeTelegram{panics: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail := &fakeEmail{}
			n := NewNotificator(logger.NewNopLogger()).
				WithTelegram(tt.tg, "42").
				WithEmail(mail, "ops@daobitat.xyz")

			assert.NotPanics(t, func() { n.Notify(context.Background(), "subject", "body") })
			assert.Len(t, mail.to, 1)
		})
	}
}

func TestEmailSendNotification(t *testing.T) {
	e := NewEmailNotificator(logger.NewNopLogger(), "smtp.example.com", 587, "user", "secret", "qr@daobitat.xyz")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	e.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, e.SendNotification("ops@daobitat.xyz", "Job failed", "line one\nline two"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "qr@daobitat.xyz", gotFrom)
	assert.Equal(t, []string{"ops@daobitat.xyz"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: [property-qr] Job failed\r\n")
	assert.Contains(t, string(gotMsg), "line one\r\nline two")

	e.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	assert.ErrorContains(t, e.SendNotification("ops@daobitat.xyz", "s", "m"), "connection refused")
}

func TestBuildMessageStripsHeaderBreaks(t *testing.T) {
	msg := string(buildMessage("a@x", "b@x", "evil\r\nBcc: c@x", "body"))
	assert.Contains(t, msg, "Subject: [property-qr] evil  Bcc: c@x\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
}

type fakeStats struct {
	resp *models.SystemAnalyticsResponse
	err  error
}

func (f *fakeStats) SystemAnalytics(context.Context, bool) (*models.SystemAnalyticsResponse, error) {
	return f.resp, f.err
}

func TestTelegramReply(t *testing.T) {
	stats := &fakeStats{resp: &models.SystemAnalyticsResponse{Analytics: &models.SystemAnalytics{
		PropertiesWithQr:        3,
		TotalScansToday:         4,
		TotalScansAllTime:       20,
		AverageScansPerProperty: 6.67,
		TopPerformingProperties: []models.PropertyPerformance{
			{PropertyID: "p1", PropertyName: "Sunny Loft", TotalScans: 12},
		},
	}}}

	tests := []struct {
		name     string
		stats    StatsSource
		text     string
		ok       bool
		contains []string
	}{
		{"start", stats, "/start", true, []string{"TELEGRAM_CHAT_ID=99"}},
		{"stats", stats, "/stats", true, []string{"Properties with QR: 3", "Scans today: 4", "Scans all time: 20", "6.67", "1. Sunny Loft (12 scans)"}},
		{"stats with bot suffix", stats, "/stats@propertyqr_bot", true, []string{"Scans all time: 20"}},
		{"stats failure", &fakeStats{err: errors.New("db down")}, "/stats", true, []string{"Failed to load analytics."}},
		{"stats unavailable", nil, "/stats", true, []string{"not available"}},
		{"unknown", stats, "hello", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := &TelegramNotificator{logger: logger.NewNopLogger(), stats: tt.stats}
			reply, ok := tg.reply(context.Background(), tt.text, "99")
			assert.Equal(t, tt.ok, ok)
			for _, want := range tt.contains {
				assert.Contains(t, reply, want)
			}
		})
	}
}
