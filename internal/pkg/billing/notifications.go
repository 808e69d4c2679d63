package billing

import (
	"context"

	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

const defaultNotificationLimit = 20

// ListNotifications returns the customer's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, customerID string, page, limit int) (*NotificationPage, error) {
	customerID, err := requireID("customer_id", customerID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		return nil, validationErr("page", "is out of range")
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	out := &NotificationPage{Page: page, Limit: limit}
	err = s.read(ctx, "list_notifications", func(tx Tx) error {
		var err error
		out.Notifications, out.Total, err = tx.ListNotifications(customerID, (page-1)*limit, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead flags one of the customer's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, customerID, notificationID string) error {
	customerID, err := requireID("customer_id", customerID)
	if err != nil {
		return err
	}
	notificationID, err = requireID("notification_id", notificationID)
	if err != nil {
		return err
	}
	return s.transact(ctx, "mark_notification_read", func(tx Tx, _ *notify.Emitter) error {
		ok, err := tx.MarkNotificationRead(customerID, notificationID)
		if err != nil {
			return err
		}
		if !ok {
			return &NotFoundError{Entity: "notification", ID: notificationID}
		}
		return nil
	})
}
