package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	mail "github.com/wneessen/go-mail"

	"jobwatch/internal/config"
	"jobwatch/internal/domain/model"
)

// mailSender is the slice of the SMTP client the channel needs.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Email sends job alerts over SMTP. Batches go out as a single digest, so a
// batch either delivers completely or not at all.
type Email struct {
	client    mailSender
	sender    string
	recipient string
}

// NewEmail builds the SMTP client. Nothing is dialed until the first send.
func NewEmail(cfg config.EmailConfig) (*Email, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SenderEmail),
		mail.WithPassword(cfg.SenderPassword),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: email: %w", ErrChannelUnavailable, err)
	}
	return &Email{client: client, sender: cfg.SenderEmail, recipient: cfg.RecipientEmail}, nil
}

func (e *Email) Name() string { return "email" }

// Send delivers a single-posting alert.
func (e *Email) Send(ctx context.Context, p model.Posting) error {
	subject := fmt.Sprintf("🚀 New Job: %s at %s", p.Title, p.Company)
	return e.deliver(ctx, subject, digestText([]model.Posting{p}), digestHTML([]model.Posting{p}))
}

// SendBatch delivers all postings as one digest mail.
func (e *Email) SendBatch(ctx context.Context, postings []model.Posting) ([]model.Posting, error) {
	if len(postings) == 0 {
		return nil, nil
	}
	if len(postings) == 1 {
		if err := e.Send(ctx, postings[0]); err != nil {
			return nil, err
		}
		return postings, nil
	}
	subject := fmt.Sprintf("🚀 %d New Job Alerts", len(postings))
	if err := e.deliver(ctx, subject, digestText(postings), digestHTML(postings)); err != nil {
		return nil, err
	}
	return postings, nil
}

func (e *Email) deliver(ctx context.Context, subject, text, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(e.sender); err != nil {
		return fmt.Errorf("%w: email from: %w", ErrSend, err)
	}
	if err := msg.To(e.recipient); err != nil {
		return fmt.Errorf("%w: email to: %w", ErrSend, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: email: %w", ErrSend, err)
	}
	return nil
}

func digestText(postings []model.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 %d NEW JOB ALERTS!\n", len(postings))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	for i, p := range postings {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
		fmt.Fprintf(&b, "   Company: %s\n", p.Company)
		if p.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", p.Location)
		}
		fmt.Fprintf(&b, "   Apply: %s\n\n", p.URL)
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")
	b.WriteString("Sent by jobwatch")
	return b.String()
}

func digestHTML(postings []model.Posting) string {
	var cards strings.Builder
	for _, p := range postings {
		fmt.Fprintf(&cards, `<div style="background:#ecf0f1;border-radius:8px;padding:15px;margin-bottom:15px;">`)
		fmt.Fprintf(&cards, `<h3 style="margin:0 0 8px 0;"><a href="%s" style="color:#3498db;text-decoration:none;">%s</a></h3>`,
			html.EscapeString(p.URL), html.EscapeString(p.Title))
		fmt.Fprintf(&cards, `<p style="margin:3px 0;color:#7f8c8d;font-size:14px;">🏢 %s`, html.EscapeString(p.Company))
		if p.Location != "" {
			fmt.Fprintf(&cards, ` • 📍 %s`, html.EscapeString(p.Location))
		}
		cards.WriteString(`</p></div>`)
	}

	return fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif;padding:20px;background-color:#f5f5f5;">
<div style="max-width:600px;margin:0 auto;background:white;border-radius:10px;padding:20px;">
<h1 style="color:#2c3e50;">🚀 %d New Job Alerts!</h1>
%s
<hr style="border:none;border-top:1px solid #ecf0f1;margin:20px 0;">
<p style="color:#95a5a6;font-size:12px;">This digest was sent by jobwatch</p>
</div></body></html>`, len(postings), cards.String())
}
