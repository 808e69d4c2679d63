package billing

import (
	"context"
	"strings"

	"github.com/ManuelReschke/EventFox/app/models"
)

// ListPayments returns one page of the payment ledger, newest first.
func (s *Service) ListPayments(ctx context.Context, filter PaymentFilter) (*PaymentPage, error) {
	if filter.Page < 1 {
		return nil, validationErr("page", "must be at least 1")
	}
	if filter.Page > MaxPage {
		return nil, validationErr("page", "is out of range")
	}
	if filter.Limit <= 0 {
		return nil, validationErr("limit", "must be positive")
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}
	status := strings.ToUpper(strings.TrimSpace(filter.Status))
	if status != "" && !models.IsValidPaymentStatus(status) {
		return nil, validationErr("status", "unknown payment status "+filter.Status)
	}

	q := PaymentQuery{
		Status:     status,
		CustomerID: strings.TrimSpace(filter.CustomerID),
		Offset:     (filter.Page - 1) * filter.Limit,
		Limit:      filter.Limit,
	}

	var rows []models.Payment
	var total int64
	err := s.read(ctx, "list_payments", func(tx Tx) error {
		var err error
		rows, total, err = tx.ListPayments(q)
		return err
	})
	if err != nil {
		return nil, err
	}

	page := &PaymentPage{
		Payments:   make([]PaymentView, 0, len(rows)),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}
	for i := range rows {
		page.Payments = append(page.Payments, newPaymentView(&rows[i]))
	}
	return page, nil
}

// GetPayment returns one enriched ledger row.
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*PaymentView, error) {
	paymentID, err := requireID("payment_id", paymentID)
	if err != nil {
		return nil, err
	}
	var view PaymentView
	err = s.read(ctx, "get_payment", func(tx Tx) error {
		p, err := tx.GetPayment(paymentID)
		if err != nil {
			return err
		}
		view = newPaymentView(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
