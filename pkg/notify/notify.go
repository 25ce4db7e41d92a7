package notify

import (
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
)

// Notifier delivers operational notifications (low-stock alerts, purchase
// order dispatch). Implementations must be safe for concurrent use. A failed
// delivery never rolls back the stock transaction that triggered it.
type Notifier interface {
	Notify(recipient, subject, body string) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	FromAddr string
}

// SMTPNotifier sends notifications over plain SMTP.
type SMTPNotifier struct {
	config SMTPConfig
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{config: config}
}

// Notify sends a plain-text email to the recipient.
func (n *SMTPNotifier) Notify(recipient, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
	auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)

	message := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		n.config.FromName, n.config.FromAddr, recipient, subject, body,
	))

	if err := smtp.SendMail(addr, auth, n.config.FromAddr, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// AsyncNotifier wraps a Notifier so deliveries run fire-and-forget. Failures
// are logged and dropped; a slow SMTP server can never hold a stock lock.
type AsyncNotifier struct {
	inner Notifier
	log   *logrus.Logger
}

// NewAsyncNotifier creates an async wrapper around inner.
func NewAsyncNotifier(inner Notifier, log *logrus.Logger) *AsyncNotifier {
	return &AsyncNotifier{inner: inner, log: log}
}

// Notify dispatches the delivery on its own goroutine and returns immediately.
func (n *AsyncNotifier) Notify(recipient, subject, body string) error {
	go func() {
		if err := n.inner.Notify(recipient, subject, body); err != nil {
			n.log.WithFields(logrus.Fields{
				"recipient": recipient,
				"subject":   subject,
			}).WithError(err).Warn("notification delivery failed")
		}
	}()
	return nil
}

// NoopNotifier discards all notifications. Used when SMTP is not configured
// and in tests.
type NoopNotifier struct{}

// Notify implements Notifier.
func (NoopNotifier) Notify(recipient, subject, body string) error { return nil }
