package notify

import (
	"context"
	"fmt"
	"html"
)

// Sender is satisfied by mail.SMTPMailer.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailDeliverer turns notifications into HTML mails.
type MailDeliverer struct {
	sender  Sender
	baseURL string
}

func NewMailDeliverer(sender Sender, baseURL string) *MailDeliverer {
	return &MailDeliverer{sender: sender, baseURL: baseURL}
}

func (d *MailDeliverer) Deliver(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return nil
	}
	n := msg.Notification
	body := fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(n.Title), html.EscapeString(n.Message))
	if n.ActionURL != "" {
		link := d.baseURL + n.ActionURL
		body += fmt.Sprintf(`<p><a href="%s">%s</a></p>`, html.EscapeString(link), html.EscapeString(link))
	}
	return d.sender.Send(ctx, msg.Email, "EventFox: "+n.Title, body)
}
