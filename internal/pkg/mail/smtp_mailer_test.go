package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailerSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewSMTPMailer(Config{Host: "mail.local", Port: "2525", Sender: "billing@eventfox.test"})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.Nil(t, a)
		return nil
	}

	err := m.Send(context.Background(), "anna@example.com", "Payment approved", "<p>ok</p>")
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "billing@eventfox.test", gotFrom)
	assert.Equal(t, []string{"anna@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Payment approved\r\n")
	assert.Contains(t, string(gotMsg), "<p>ok</p>")
}

func TestSMTPMailerSendErrors(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "mail.local", Port: "25", Sender: "x@y.z", Username: "u", Password: "p"})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.NotNil(t, a)
		return errors.New("connection refused")
	}

	assert.Error(t, m.Send(context.Background(), "", "s", "b"))
	assert.EqualError(t, m.Send(context.Background(), "a@b.c", "s", "b"), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "a@b.c", "s", "b"), context.Canceled)
}
