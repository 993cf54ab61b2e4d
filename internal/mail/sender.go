package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/zofin/loanflow/internal/config"
)

// Outbound is one mail ready for delivery.
type Outbound struct {
	To      string
	ToName  string
	Message Message
	// ReplyTo directs responses away from the envelope sender: the operator
	// mail points back at the applicant, the confirmation at the operator.
	ReplyTo     string
	ReplyToName string
	// ListUnsubscribe, when set, rides as the List-Unsubscribe header on the
	// confirmation mail.
	ListUnsubscribe string
	// Attachments ride only on the operator mail.
	Attachments []Attachment
}

// Sender delivers rendered mails. SMTPSender is the production
// implementation; tests substitute a recorder.
type Sender interface {
	Send(ctx context.Context, out Outbound) error
}

// SMTPSender delivers mail over authenticated SMTP with mandatory TLS.
type SMTPSender struct {
	client   *gomail.Client
	from     string
	fromName string
}

// NewSMTPSender builds a sender from the SMTP configuration.
func NewSMTPSender(cfg config.SMTP) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

// Send builds and delivers one message. HTML is the primary body; when a
// plain-text rendering exists it rides as the alternative part.
func (s *SMTPSender) Send(ctx context.Context, out Outbound) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("mail: set sender: %w", err)
	}
	if err := msg.AddToFormat(out.ToName, out.To); err != nil {
		return fmt.Errorf("mail: set recipient %q: %w", out.To, err)
	}
	if out.ReplyTo != "" {
		if err := msg.ReplyToFormat(out.ReplyToName, out.ReplyTo); err != nil {
			return fmt.Errorf("mail: set reply-to %q: %w", out.ReplyTo, err)
		}
	}
	if out.ListUnsubscribe != "" {
		msg.SetGenHeader(gomail.HeaderListUnsubscribe, out.ListUnsubscribe)
	}
	msg.Subject(out.Message.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, out.Message.HTML)
	if out.Message.Text != "" {
		msg.AddAlternativeString(gomail.TypeTextPlain, out.Message.Text)
	}
	for _, a := range out.Attachments {
		if err := msg.AttachReader(a.Filename, bytes.NewReader(a.Content),
			gomail.WithFileContentType(gomail.ContentType(a.ContentType))); err != nil {
			return fmt.Errorf("mail: attach %q: %w", a.Filename, err)
		}
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: deliver to %q: %w", out.To, err)
	}
	return nil
}
