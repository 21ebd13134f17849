package service

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pageza/savorly/backend/internal/models"
)

// EmailService delivers plain-text mail over SMTP. Without a host it only
// logs what it would have sent.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	admin    string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger   *zap.Logger
}

// EmailConfig carries the SMTP settings.
type EmailConfig struct {
	Host, Port, Username, Password, From, AdminEmail string
}

func NewEmailService(cfg EmailConfig, logger *zap.Logger) *EmailService {
	return &EmailService{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		admin:    cfg.AdminEmail,
		send:     smtp.SendMail,
		logger:   logger,
	}
}

var titleCaser = cases.Title(language.English)

// SendEmail implements Mailer.
func (s *EmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.host == "" {
		s.logger.Info("SMTP not configured, email logged only",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Int("body_bytes", len(body)))
		return nil
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	msg := fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		to, s.from, subject, body)

	if err := s.send(net.JoinHostPort(s.host, s.port), auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NotifyFeedback tells the admin address about new feedback.
func (s *EmailService) NotifyFeedback(ctx context.Context, fb *models.Feedback) error {
	to := s.admin
	if to == "" {
		to = s.from
	}
	if to == "" {
		return nil
	}
	subject := fmt.Sprintf("[Savorly] New %s: %s", titleCaser.String(fb.Type), fb.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nType: %s\nPriority: %s\nStatus: %s\n",
		fb.Title, titleCaser.String(fb.Type), titleCaser.String(fb.Priority), titleCaser.String(fb.Status))
	if fb.UserID != nil {
		fmt.Fprintf(&b, "User: %s\n", fb.UserID)
	} else {
		b.WriteString("User: anonymous\n")
	}
	if fb.URL != "" {
		fmt.Fprintf(&b, "Page: %s\n", fb.URL)
	}
	if fb.UserAgent != "" {
		fmt.Fprintf(&b, "User agent: %s\n", fb.UserAgent)
	}
	fmt.Fprintf(&b, "\n%s\n\nFeedback ID: %s\n", fb.Description, fb.ID)

	return s.SendEmail(ctx, to, subject, b.String())
}
