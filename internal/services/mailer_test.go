package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type recordingSender struct {
	sent []*mail.Msg
	err  error
}

func (r *recordingSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, messages...)
	return nil
}

func TestSMTPMailer_SendPasswordReset(t *testing.T) {
	sender := &recordingSender{}
	m := &SMTPMailer{sender: sender, from: "MoodJournal <no-reply@example.com>", log: zap.NewNop()}

	link := "moodjournal://auth/reset-password?token=abc123"
	require.NoError(t, m.SendPasswordReset(context.Background(), "ada@example.com", link))
	require.Len(t, sender.sent, 1)

	var buf bytes.Buffer
	_, err := sender.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "To: <ada@example.com>")
	assert.Contains(t, raw, "no-reply@example.com")
	assert.Contains(t, raw, "Subject: Reset your MoodJournal password")
	assert.Contains(t, raw, "abc123")
}

func TestSMTPMailer_Errors(t *testing.T) {
	t.Run("relay failure", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("421 try later")}
		m := &SMTPMailer{sender: sender, from: "no-reply@example.com", log: zap.NewNop()}
		err := m.SendPasswordReset(context.Background(), "ada@example.com", "link")
		assert.ErrorContains(t, err, "421 try later")
	})

	t.Run("bad recipient", func(t *testing.T) {
		sender := &recordingSender{}
		m := &SMTPMailer{sender: sender, from: "no-reply@example.com", log: zap.NewNop()}
		require.Error(t, m.SendPasswordReset(context.Background(), "not an address", "link"))
		assert.Empty(t, sender.sent)
	})
}

func TestNewSMTPMailer(t *testing.T) {
	m, err := NewSMTPMailer(SMTPSettings{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer",
		Password: "secret",
		From:     "no-reply@example.com",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "no-reply@example.com", m.from)

	_, err = NewSMTPMailer(SMTPSettings{Port: 587, From: "no-reply@example.com"}, zap.NewNop())
	assert.Error(t, err, "empty host")
}
