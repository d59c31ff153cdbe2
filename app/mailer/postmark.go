package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/codelens-app/auth-service/config"
)

var ErrSendFailed = errors.New("failed to send email")

// Mailer is the outbound email contract the auth flows consume. Failure must
// be distinguishable from success so the flows can report accurately.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

func NewPostmarkMailer(cfg *config.Config) (*PostmarkMailer, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, errors.New("POSTMARK_SERVER_TOKEN is required")
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, errors.New("POSTMARK_ACCOUNT_TOKEN is required")
	}
	if cfg.EmailSender == "" {
		return nil, errors.New("EMAIL_SENDER is required")
	}

	return &PostmarkMailer{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		sender: cfg.EmailSender,
	}, nil
}

func (m *PostmarkMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:       m.sender,
		To:         to,
		Subject:    subject,
		HTMLBody:   RenderBody(to, subject, htmlBody),
		TrackOpens: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("%w: postmark error %d: %s", ErrSendFailed, resp.ErrorCode, resp.Message)
	}
	return nil
}

// RenderBody wraps the message in the shared transactional template.
func RenderBody(to, subject, htmlMsg string) string {
	return fmt.Sprintf("<h3>%s</h3><p>To: %s</p><div>%s</div>", subject, to, htmlMsg)
}
