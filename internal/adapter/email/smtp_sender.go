package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"strings"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"gopkg.in/gomail.v2"
)

// Sender delivers a notification to a user's mailbox.
type Sender interface {
	SendNotification(ctx context.Context, to string, n *entity.Notification) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpSender struct {
	from string
	log  logger.Logger
	d    dialer
}

func NewSMTPSender(cfg config.SMTPConfig, log logger.Logger) (Sender, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	serverName := cfg.ServerName
	if serverName == "" {
		serverName = cfg.Host
	}
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		d.SSL = true
		d.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	case "tls", "starttls":
		d.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	}

	return &smtpSender{from: cfg.SenderEmail, log: log, d: d}, nil
}

func (s *smtpSender) SendNotification(ctx context.Context, to string, n *entity.Notification) error {
	if to == "" {
		return fmt.Errorf("no recipient provided for notification %s", n.Type)
	}
	m := BuildMessage(s.from, to, n)

	done := make(chan error, 1)
	go func() {
		done <- s.d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		s.log.Warnf("Email to %s (type: %s) cancelled or timed out by context: %v", to, n.Type, ctx.Err())
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	s.log.Debugf("Notification email sent to %s, type: %s", to, n.Type)
	return nil
}

// BuildMessage renders n as a multipart message with a plain text alternative.
func BuildMessage(from, to string, n *entity.Notification) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/html", fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(n.Title), html.EscapeString(n.Message)))
	m.AddAlternative("text/plain", n.Title+"\n\n"+n.Message)
	return m
}
