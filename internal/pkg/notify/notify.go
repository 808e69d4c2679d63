package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ManuelReschke/EventFox/app/models"
)

// Writer persists notifications inside the caller's transaction.
type Writer interface {
	CreateNotification(n *models.Notification) error
}

// Message is a persisted notification waiting for delivery.
type Message struct {
	Notification models.Notification
	Email        string
}

// Deliverer pushes a committed notification to an external channel.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// Emitter collects notifications written during one transaction. Flush must
// only be called after the transaction committed.
type Emitter struct {
	messages []Message
}

func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit writes n through w and records it for delivery. email may be empty
// when the recipient has no mailbox.
func (e *Emitter) Emit(w Writer, n *models.Notification, email string) error {
	if n == nil {
		return errors.New("notify: nil notification")
	}
	if err := w.CreateNotification(n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	e.messages = append(e.messages, Message{Notification: *n, Email: email})
	return nil
}

// Messages returns the recorded messages.
func (e *Emitter) Messages() []Message {
	return e.messages
}

// Reset drops recorded messages, e.g. when a transaction is retried.
func (e *Emitter) Reset() {
	e.messages = nil
}

// Flush hands every recorded message to d. Errors are collected, not
// returned early, so one failing message does not block the rest.
func (e *Emitter) Flush(ctx context.Context, d Deliverer) (delivered int, errs []error) {
	if d == nil {
		return 0, nil
	}
	for _, msg := range e.messages {
		if err := d.Deliver(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("deliver notification %s: %w", msg.Notification.ID, err))
			continue
		}
		delivered++
	}
	e.messages = nil
	return delivered, errs
}

// NoopDeliverer discards messages.
type NoopDeliverer struct{}

func (NoopDeliverer) Deliver(context.Context, Message) error { return nil }

// Recorder keeps delivered messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (r *Recorder) Deliver(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of what was delivered so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
