package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

// ApprovePayment confirms a bank transfer. The payment is completed, its
// subscription starts a 30 day period and becomes the customer's plan.
func (s *Service) ApprovePayment(ctx context.Context, d AdminDecision) (*PaymentView, error) {
	paymentID, adminID, err := validateDecision(d)
	if err != nil {
		return nil, err
	}
	trx := strings.TrimSpace(d.TransactionID)
	if len(trx) > models.MaxTransactionIDLength {
		return nil, validationErr("transaction_id", fmt.Sprintf("must be at most %d characters", models.MaxTransactionIDLength))
	}
	notes := strings.TrimSpace(d.Notes)

	var view PaymentView
	err = s.transact(ctx, "approve_payment", func(tx Tx, emitter *notify.Emitter) error {
		payment, err := s.loadPending(tx, paymentID)
		if err != nil {
			return err
		}

		now := s.now()
		ref := trx
		if ref == "" {
			ref = s.newTransactionRef(now)
		}
		claimed, err := tx.ClaimPayment(paymentID, models.PaymentStatusCompleted, models.PaymentClaim{
			TransactionID: &ref,
			Description:   approvedDescription(payment.Description, notes),
			ProcessedBy:   &adminID,
			ProcessedAt:   now,
		})
		if err != nil {
			return err
		}
		if !claimed {
			return &ConcurrencyConflict{PaymentID: paymentID}
		}

		var plan *models.Plan
		customer, err := tx.LockCustomer(payment.CustomerID)
		if err != nil {
			return err
		}
		if payment.SubscriptionID != nil {
			sub, err := tx.GetSubscription(*payment.SubscriptionID)
			if err != nil {
				return err
			}
			sub.Activate(now, models.SubscriptionPeriod)
			if err := tx.SaveSubscription(sub); err != nil {
				return err
			}
			if _, err := tx.CancelActiveSubscriptions(customer.ID, sub.ID, now); err != nil {
				return err
			}
			if err := tx.SetCustomerPlan(customer.ID, sub.PlanID); err != nil {
				return err
			}
			if plan, err = tx.GetPlan(sub.PlanID); err != nil {
				return err
			}
		}

		if err := emitter.Emit(tx, s.paymentApprovedNotification(customer.ID, payment, plan), customer.Email); err != nil {
			return err
		}

		updated, err := tx.GetPayment(paymentID)
		if err != nil {
			return err
		}
		view = newPaymentView(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPaymentTransition(models.PaymentStatusCompleted)
	log.Infof("[Billing] Payment %s approved by %s", paymentID, adminID)
	return &view, nil
}

// RejectPayment marks a pending payment as failed. Subscriptions and the
// customer's plan stay untouched.
func (s *Service) RejectPayment(ctx context.Context, d AdminDecision) (*PaymentView, error) {
	paymentID, adminID, err := validateDecision(d)
	if err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(d.Notes)

	var view PaymentView
	err = s.transact(ctx, "reject_payment", func(tx Tx, emitter *notify.Emitter) error {
		payment, err := s.loadPending(tx, paymentID)
		if err != nil {
			return err
		}

		claimed, err := tx.ClaimPayment(paymentID, models.PaymentStatusFailed, models.PaymentClaim{
			Description: rejectedDescription(notes),
			ProcessedBy: &adminID,
			ProcessedAt: s.now(),
		})
		if err != nil {
			return err
		}
		if !claimed {
			return &ConcurrencyConflict{PaymentID: paymentID}
		}

		email := ""
		if payment.Customer != nil {
			email = payment.Customer.Email
		}
		if err := emitter.Emit(tx, s.paymentRejectedNotification(payment.CustomerID, payment, notes), email); err != nil {
			return err
		}

		updated, err := tx.GetPayment(paymentID)
		if err != nil {
			return err
		}
		view = newPaymentView(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPaymentTransition(models.PaymentStatusFailed)
	log.Infof("[Billing] Payment %s rejected by %s", paymentID, adminID)
	return &view, nil
}

// loadPending reads a payment and applies the PENDING guard. The
// conditional claim stays the authoritative gate.
func (s *Service) loadPending(tx Tx, paymentID string) (*models.Payment, error) {
	payment, err := tx.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		return nil, policyErr(ReasonAlreadyProcessed)
	}
	return payment, nil
}

func validateDecision(d AdminDecision) (paymentID, adminID string, err error) {
	if paymentID, err = requireID("payment_id", d.PaymentID); err != nil {
		return "", "", err
	}
	if adminID, err = requireID("admin_id", d.AdminID); err != nil {
		return "", "", err
	}
	return paymentID, adminID, nil
}
