package notificator

import (
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/WankioM/property-qr/pkg/logger"
)

const subjectPrefix = "[property-qr] "

type EmailNotificator struct {
	logger *logger.Logger

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string

	SMTPAuth smtp.Auth

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotificator(logger *logger.Logger, SMTPHost string, SMTPPort int, SMTPUser string, SMTPPassword string, SMTPSender string) *EmailNotificator {
	var auth smtp.Auth
	if SMTPUser != "" {
		auth = smtp.PlainAuth(
			"",
			SMTPUser,
			SMTPPassword,
			SMTPHost,
		)
	}

	return &EmailNotificator{
		logger:       logger.Named("email"),
		SMTPAuth:     auth,
		SMTPHost:     SMTPHost,
		SMTPPort:     SMTPPort,
		SMTPUser:     SMTPUser,
		SMTPPassword: SMTPPassword,
		SMTPSender:   SMTPSender,
		sendMail:     smtp.SendMail,
	}
}

func (e *EmailNotificator) SendNotification(to, subject, message string) error {
	addr := e.SMTPHost + ":" + strconv.Itoa(e.SMTPPort)
	msg := buildMessage(e.SMTPSender, to, subject, message)
	if err := e.sendMail(addr, e.SMTPAuth, e.SMTPSender, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	// Subject is a single header line.
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from,
		to,
		subjectPrefix, subject,
		strings.ReplaceAll(body, "\n", "\r\n"),
	))
}
