// Package email is a side-channel notification sender. Delivery failures are
// reported to the caller and never affect ticket state.
package email

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
)

// Attachment is an optional file part for an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Sender delivers mail over SMTP with STARTTLS.
type Sender struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewSender constructs the sender.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) *Sender {
	return &Sender{cfg: cfg, logger: logger}
}

// Configured reports whether credentials are present.
func (s *Sender) Configured() bool {
	return s.cfg.Configured()
}

// Send delivers one message, optionally with an attachment.
func (s *Sender) Send(recipient, subject, body string, attachment *Attachment) error {
	if !s.Configured() {
		return fmt.Errorf("email credentials not configured")
	}

	msg := buildMessage(s.cfg.Address, recipient, subject, body, attachment)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPServer, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.Address, s.cfg.Password, s.cfg.SMTPServer)

	if err := smtp.SendMail(addr, auth, s.cfg.Address, []string{recipient}, msg); err != nil {
		s.logger.Warn("email send failed", zap.String("recipient", recipient), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

const mimeBoundary = "axis-mime-boundary"

// buildMessage assembles a MIME message, multipart when an attachment is
// included.
func buildMessage(from, to, subject, body string, attachment *Attachment) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if attachment == nil {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(body)
		return []byte(b.String())
	}

	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: application/octet-stream\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%s\r\n\r\n", attachment.Filename)

	encoded := base64.StdEncoding.EncodeToString(attachment.Content)
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}
