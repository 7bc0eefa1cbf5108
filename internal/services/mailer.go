package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// SMTPSettings configures SMTPMailer.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer sends reset links through an SMTP relay.
type SMTPMailer struct {
	sender mailSender
	from   string
	log    *zap.Logger
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(s SMTPSettings, log *zap.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{mail.WithTimeout(15 * time.Second)}
	if s.Port == 465 {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	opts = append(opts, mail.WithPort(s.Port))
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	client, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{sender: client, from: s.From, log: log}, nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	msg, err := resetMessage(m.from, email, link)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Info("password reset mail sent")
	return nil
}

func resetMessage(from, to, link string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject("Reset your MoodJournal password")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Someone asked to reset the password for this account.\n\n"+
			"Open this link within %d minutes to choose a new one:\n\n%s\n\n"+
			"If it was not you, ignore this message.\n",
		int(ResetTokenTTL/time.Minute), link))
	return msg, nil
}

// LogMailer writes reset links to the log instead of sending mail. Only the
// development server uses it.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.log.Debug("password reset link (not mailed)", zap.String("email", email), zap.String("link", link))
	return nil
}
