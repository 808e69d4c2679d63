package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceWriter struct {
	rows []models.Notification
	err  error
}

func (w *sliceWriter) CreateNotification(n *models.Notification) error {
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, *n)
	return nil
}

type fakeSender struct {
	to, subject, body string
	err               error
}

func (s *fakeSender) Send(_ context.Context, to, subject, body string) error {
	s.to, s.subject, s.body = to, subject, body
	return s.err
}

func TestEmitterEmitAndFlush(t *testing.T) {
	w := &sliceWriter{}
	e := NewEmitter()

	n := &models.Notification{ID: "n1", RecipientID: "c1", Title: "Payment approved"}
	require.NoError(t, e.Emit(w, n, "anna@example.com"))
	require.Len(t, w.rows, 1)
	require.Len(t, e.Messages(), 1)

	rec := &Recorder{}
	delivered, errs := e.Flush(context.Background(), rec)
	assert.Equal(t, 1, delivered)
	assert.Empty(t, errs)
	assert.Empty(t, e.Messages())
	require.Len(t, rec.Messages(), 1)
	assert.Equal(t, "anna@example.com", rec.Messages()[0].Email)
}

func TestEmitterWriteFailureRecordsNothing(t *testing.T) {
	w := &sliceWriter{err: errors.New("disk full")}
	e := NewEmitter()

	err := e.Emit(w, &models.Notification{ID: "n1"}, "")
	assert.Error(t, err)
	assert.Empty(t, e.Messages())
	assert.Error(t, e.Emit(w, nil, ""))
}

func TestEmitterFlushCollectsErrors(t *testing.T) {
	e := NewEmitter()
	w := &sliceWriter{}
	require.NoError(t, e.Emit(w, &models.Notification{ID: "n1"}, "a@b.c"))
	require.NoError(t, e.Emit(w, &models.Notification{ID: "n2"}, "a@b.c"))

	delivered, errs := e.Flush(context.Background(), &Recorder{Err: errors.New("smtp down")})
	assert.Equal(t, 0, delivered)
	assert.Len(t, errs, 2)
}

func TestMailDeliverer(t *testing.T) {
	s := &fakeSender{}
	d := NewMailDeliverer(s, "https://app.eventfox.test")

	msg := Message{
		Notification: models.Notification{Title: "Plan <Pro> active", Message: "Thanks", ActionURL: "/billing"},
		Email:        "anna@example.com",
	}
	require.NoError(t, d.Deliver(context.Background(), msg))
	assert.Equal(t, "anna@example.com", s.to)
	assert.Equal(t, "EventFox: Plan <Pro> active", s.subject)
	assert.Contains(t, s.body, "Plan &lt;Pro&gt; active")
	assert.Contains(t, s.body, "https://app.eventfox.test/billing")

	s.to = ""
	require.NoError(t, d.Deliver(context.Background(), Message{Notification: models.Notification{Title: "x"}}))
	assert.Empty(t, s.to)
}
