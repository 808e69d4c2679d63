package billing

import (
	"fmt"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
)

func (s *Service) customerNotification(customerID, title, message string) *models.Notification {
	return &models.Notification{
		ID:            s.newID(),
		RecipientID:   customerID,
		RecipientType: models.RecipientTypeCustomer,
		Type:          models.NotificationTypeBilling,
		Title:         title,
		Message:       message,
		ActionURL:     constants.DashboardBillingRoute,
		CreatedAt:     s.now(),
	}
}

func (s *Service) planActivatedNotification(customerID string, plan *models.Plan) *models.Notification {
	return s.customerNotification(customerID,
		"Plan changed",
		fmt.Sprintf("Your plan is now %s.", plan.Name))
}

func (s *Service) upgradeRequestedNotification(customerID string, plan *models.Plan, p *models.Payment) *models.Notification {
	return s.customerNotification(customerID,
		"Upgrade requested",
		fmt.Sprintf("Please transfer %s %s to activate %s. Use reference %s. The request expires after %d hours.",
			p.Amount.StringFixed(2), p.Currency, plan.Name, p.ID, s.Settings().TimeoutHours))
}

func (s *Service) paymentApprovedNotification(customerID string, p *models.Payment, plan *models.Plan) *models.Notification {
	msg := fmt.Sprintf("We received your payment of %s %s.", p.Amount.StringFixed(2), p.Currency)
	if plan != nil {
		msg += fmt.Sprintf(" Your %s plan is active now.", plan.Name)
	}
	return s.customerNotification(customerID, "Payment approved", msg)
}

func (s *Service) paymentRejectedNotification(customerID string, p *models.Payment, notes string) *models.Notification {
	msg := fmt.Sprintf("Your payment of %s %s was rejected.", p.Amount.StringFixed(2), p.Currency)
	if notes != "" {
		msg += " Notes: " + notes
	}
	return s.customerNotification(customerID, "Payment rejected", msg)
}

func (s *Service) paymentExpiredNotification(customerID string, p *models.Payment) *models.Notification {
	return s.customerNotification(customerID,
		"Payment request expired",
		fmt.Sprintf("We did not receive your transfer of %s %s within %d hours. You can request the upgrade again.",
			p.Amount.StringFixed(2), p.Currency, s.Settings().TimeoutHours))
}

func (s *Service) subscriptionExpiredNotification(customerID string, fallback *models.Plan) *models.Notification {
	return s.customerNotification(customerID,
		"Subscription expired",
		fmt.Sprintf("Your subscription period ended. You are on the %s plan now.", fallback.Name))
}

func approvedDescription(description, notes string) string {
	if notes == "" {
		return description
	}
	return description + " (Approved: " + notes + ")"
}

func rejectedDescription(notes string) string {
	if notes == "" {
		return "Rejected"
	}
	return "Rejected: " + notes
}

func expiredDescription(hours int) string {
	return fmt.Sprintf("Expired: no transfer received within %d hours", hours)
}
