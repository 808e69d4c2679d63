package billing

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

// RequestPlanChange moves a customer towards targetPlanID. Free plans are
// activated immediately; paid plans open a PENDING payment that an admin
// approves once the bank transfer arrived.
func (s *Service) RequestPlanChange(ctx context.Context, customerID, targetPlanID string) (*PlanChangeResult, error) {
	customerID, err := requireID("customer_id", customerID)
	if err != nil {
		return nil, err
	}
	targetPlanID, err = requireID("plan_id", targetPlanID)
	if err != nil {
		return nil, err
	}

	var result *PlanChangeResult
	err = s.transact(ctx, "request_plan_change", func(tx Tx, emitter *notify.Emitter) error {
		customer, err := tx.LockCustomer(customerID)
		if err != nil {
			return err
		}
		if !customer.IsActive {
			return &NotFoundError{Entity: "customer", ID: customerID}
		}

		target, err := tx.GetPlan(targetPlanID)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return &NotFoundError{Entity: "plan", ID: targetPlanID}
		}

		now := s.now()
		current, err := s.currentPlan(tx, customer, now)
		if err != nil {
			return err
		}
		if current != nil && current.ID == target.ID {
			return policyErr(ReasonAlreadyOnPlan)
		}
		if target.IsDowngradeFrom(current) {
			return policyErr(ReasonDowngradeUnsupported)
		}

		pending, err := tx.HasPendingPayment(customerID)
		if err != nil {
			return err
		}
		if pending {
			return policyErr(ReasonPaymentAlreadyPending)
		}

		sub, err := tx.FindSubscription(customerID, models.SubscriptionStatusPending)
		if err != nil {
			return err
		}
		if sub == nil {
			sub = &models.Subscription{ID: s.newID(), CustomerID: customerID}
		}
		sub.PlanID = target.ID
		sub.Price = target.Price
		sub.Currency = s.currencyOf(target)
		sub.Status = models.SubscriptionStatusPending
		sub.StartDate = nil
		sub.EndDate = nil

		if target.IsFree() {
			result, err = s.activateFree(tx, emitter, customer, target, sub)
			return err
		}
		result, err = s.openPayment(tx, emitter, customer, target, sub)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.Activated {
		log.Infof("[Billing] Customer %s switched to free plan %s", customerID, targetPlanID)
	} else {
		log.Infof("[Billing] Customer %s requested plan %s, payment %s pending", customerID, targetPlanID, result.PaymentID)
	}
	return result, nil
}

func (s *Service) activateFree(tx Tx, emitter *notify.Emitter, customer *models.Customer, plan *models.Plan, sub *models.Subscription) (*PlanChangeResult, error) {
	now := s.now()
	sub.Activate(now, 0)
	if err := tx.SaveSubscription(sub); err != nil {
		return nil, err
	}
	if _, err := tx.CancelActiveSubscriptions(customer.ID, sub.ID, now); err != nil {
		return nil, err
	}
	if err := tx.SetCustomerPlan(customer.ID, plan.ID); err != nil {
		return nil, err
	}
	if err := emitter.Emit(tx, s.planActivatedNotification(customer.ID, plan), customer.Email); err != nil {
		return nil, err
	}
	return &PlanChangeResult{
		Activated:      true,
		PlanID:         plan.ID,
		SubscriptionID: sub.ID,
		Amount:         plan.Price,
		Currency:       sub.Currency,
	}, nil
}

func (s *Service) openPayment(tx Tx, emitter *notify.Emitter, customer *models.Customer, plan *models.Plan, sub *models.Subscription) (*PlanChangeResult, error) {
	if err := tx.SaveSubscription(sub); err != nil {
		return nil, err
	}

	now := s.now()
	settings := s.Settings()
	subID := sub.ID
	payment := &models.Payment{
		ID:             s.newID(),
		CustomerID:     customer.ID,
		SubscriptionID: &subID,
		Amount:         plan.Price,
		Currency:       sub.Currency,
		Status:         models.PaymentStatusPending,
		PaymentMethod:  models.PaymentMethodBankTransfer,
		Description:    "Upgrade to " + plan.Name,
		ExpiresAt:      now.Add(settings.Timeout()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.CreatePayment(payment); err != nil {
		return nil, err
	}
	if err := emitter.Emit(tx, s.upgradeRequestedNotification(customer.ID, plan, payment), customer.Email); err != nil {
		return nil, err
	}

	expires := payment.ExpiresAt
	return &PlanChangeResult{
		PlanID:         plan.ID,
		SubscriptionID: sub.ID,
		PaymentID:      payment.ID,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		ExpiresAt:      &expires,
		Instructions:   s.instructions(),
	}, nil
}

// currentPlan resolves the entitling plan inside tx. A cached plan id that
// no longer exists yields nil.
func (s *Service) currentPlan(tx Tx, customer *models.Customer, now time.Time) (*models.Plan, error) {
	active, err := tx.FindSubscription(customer.ID, models.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	res := entitlements.Resolve(customer, active, now)
	if res.PlanID == "" {
		return nil, nil
	}
	plan, err := tx.GetPlan(res.PlanID)
	if errors.Is(err, ErrNotFound) {
		log.Warnf("[Billing] Customer %s references unknown plan %s", customer.ID, res.PlanID)
		return nil, nil
	}
	return plan, err
}

func (s *Service) instructions() *BankTransferInstructions {
	settings := s.Settings()
	return &BankTransferInstructions{
		BankName:      settings.BankName,
		AccountHolder: settings.AccountHolder,
		AccountNumber: settings.AccountNumber,
		IBAN:          settings.IBAN,
		SWIFT:         settings.SWIFT,
		TimeoutHours:  settings.TimeoutHours,
	}
}

func (s *Service) currencyOf(p *models.Plan) string {
	if p.Currency != "" {
		return p.Currency
	}
	return s.Settings().Currency
}
