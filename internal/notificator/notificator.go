// Package notificator fans operational reports out to Telegram and email.
package notificator

import (
	"context"
	"runtime/debug"

	"github.com/WankioM/property-qr/pkg/logger"
)

type telegramSender interface {
	SendNotification(ctx context.Context, chatID, message string) error
}

type emailSender interface {
	SendNotification(to, subject, message string) error
}

type Notificator struct {
	logger *logger.Logger

	telegram       telegramSender
	telegramChatID string
	email          emailSender
	emailTo        string
}

func NewNotificator(logger *logger.Logger) *Notificator {
	return &Notificator{logger: logger.Named("notificator")}
}

// WithTelegram enables delivery to chatID.
func (n *Notificator) WithTelegram(sender telegramSender, chatID string) *Notificator {
	n.telegram = sender
	n.telegramChatID = chatID
	return n
}

// WithEmail enables delivery to the address to.
func (n *Notificator) WithEmail(sender emailSender, to string) *Notificator {
	n.email = sender
	n.emailTo = to
	return n
}

// Enabled reports whether any channel is configured.
func (n *Notificator) Enabled() bool {
	return n.telegramEnabled() || n.emailEnabled()
}

func (n *Notificator) telegramEnabled() bool {
	return n.telegram != nil && n.telegramChatID != ""
}

func (n *Notificator) emailEnabled() bool {
	return n.email != nil && n.emailTo != ""
}

// safeCall runs a function with panic recovery (synchronous, no goroutine spawning)
func (n *Notificator) safeCall(fn func() error, context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	if err := fn(); err != nil {
		n.logger.Error("Failed to send notification", "context", context, "error", err)
	}
}

// Notify delivers subject and message to every configured channel. Delivery
// failures are logged, never returned.
func (n *Notificator) Notify(ctx context.Context, subject, message string) {
	if !n.Enabled() {
		n.logger.Debug("No notification channel configured", "subject", subject)
		return
	}
	if n.telegramEnabled() {
		text := subject + "\n\n" + message
		n.safeCall(func() error { return n.telegram.SendNotification(ctx, n.telegramChatID, text) }, "telegramNotification")
	}
	if n.emailEnabled() {
		n.safeCall(func() error { return n.email.SendNotification(n.emailTo, subject, message) }, "emailNotification")
	}
}
