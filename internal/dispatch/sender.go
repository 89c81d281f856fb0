package dispatch

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

const errorMessageSendEmail = "dispatch: send email"

// SenderIdentity names the configured outbound sender. It always comes from
// process configuration, never from the caller.
type SenderIdentity struct {
	Name  string
	Email string
}

// EmailSender sends an HTML email message to a recipient.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient string, subject string, htmlBody string) error
}

// ResendSender delivers email through the Resend transactional API.
type ResendSender struct {
	client *resend.Client
	sender SenderIdentity
}

// NewResendSender creates an EmailSender backed by Resend.
func NewResendSender(apiKey string, sender SenderIdentity) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		sender: sender,
	}
}

// SendEmail sends one HTML email from the configured sender identity.
func (resendSender *ResendSender) SendEmail(ctx context.Context, recipient string, subject string, htmlBody string) error {
	sendRequest := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", resendSender.sender.Name, resendSender.sender.Email),
		To:      []string{recipient},
		Subject: subject,
		Html:    htmlBody,
	}

	if _, sendErr := resendSender.client.Emails.SendWithContext(ctx, sendRequest); sendErr != nil {
		return fmt.Errorf("%s: %w", errorMessageSendEmail, sendErr)
	}

	return nil
}
