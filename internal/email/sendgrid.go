// Package email sends templated notification emails.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// TemplatedEmail is one dynamic-template email.
type TemplatedEmail struct {
	From         Address
	To           Address
	Subject      string
	TemplateID   string
	TemplateData map[string]any
}

// Address is a named mailbox.
type Address struct {
	Name  string
	Email string
}

// Sender delivers templated emails and returns the provider's message id.
type Sender interface {
	SendTemplatedEmail(ctx context.Context, msg TemplatedEmail) (string, error)
}

// SendGridClient sends through the SendGrid v3 mail API.
type SendGridClient struct {
	apiKey string
	client *sendgrid.Client
}

// NewSendGridClient returns a client for apiKey. An empty key yields a client
// whose sends fail with ErrNotConfigured.
func NewSendGridClient(apiKey string) *SendGridClient {
	c := &SendGridClient{apiKey: strings.TrimSpace(apiKey)}
	if c.apiKey != "" {
		c.client = sendgrid.NewSendClient(c.apiKey)
	}
	return c
}

// SendTemplatedEmail implements Sender.
func (c *SendGridClient) SendTemplatedEmail(ctx context.Context, msg TemplatedEmail) (string, error) {
	if c.client == nil || msg.From.Email == "" {
		return "", ErrNotConfigured
	}
	if msg.TemplateID == "" {
		return "", fmt.Errorf("%w: missing template id", ErrNotConfigured)
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(msg.From.Name, msg.From.Email))
	m.SetTemplateID(msg.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.To.Name, msg.To.Email))
	p.Subject = msg.Subject
	for k, v := range msg.TemplateData {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)

	resp, err := c.client.SendWithContext(ctx, m)
	if err != nil {
		return "", classifyTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newAPIError(resp.StatusCode, resp.Body)
	}

	var messageID string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	log.Debug().
		Str("to", msg.To.Email).
		Str("template_id", msg.TemplateID).
		Str("provider_message_id", messageID).
		Msg("email sent")
	return messageID, nil
}
