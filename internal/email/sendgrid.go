package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/yukikurage/teamtask-api/internal/metrics"
)

// SendgridMailer sends email through the Sendgrid v3 API
type SendgridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendgridMailer(apiKey, from, fromName string) *SendgridMailer {
	return &SendgridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) (err error) {
	defer func() { metrics.ObserveEmail(string(ProviderSendgrid), err) }()

	from := mail.NewEmail(m.fromName, m.from)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via Sendgrid: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("unexpected Sendgrid status code: %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
