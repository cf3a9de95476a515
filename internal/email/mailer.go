package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yukikurage/teamtask-api/internal/config"
)

//go:generate mockgen -source=./mailer.go -destination=./mocks/mock_mailer.go -package=mocks Mailer

// Provider identifies supported email providers
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendgrid Provider = "sendgrid"
	ProviderLog      Provider = "log"
)

// Message is a rendered outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns the sender selected by cfg.MailProvider.
func NewMailer(cfg *config.Config, logger *slog.Logger) (Mailer, error) {
	switch Provider(cfg.MailProvider) {
	case ProviderSendgrid:
		if cfg.SendgridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires SENDGRID_API_KEY")
		}
		return NewSendgridMailer(cfg.SendgridAPIKey, cfg.MailFrom, cfg.MailFromName), nil
	case ProviderSMTP:
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp provider requires SMTP_HOST")
		}
		return NewSMTPMailer(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		}), nil
	case ProviderLog, "":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.MailProvider)
	}
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email not delivered (log provider)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return nil
}
