package billing

import (
	"context"
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/entitlements"
)

// GetEntitlements resolves what the customer may access right now. It only
// reads.
func (s *Service) GetEntitlements(ctx context.Context, customerID string) (*Entitlements, error) {
	customerID, err := requireID("customer_id", customerID)
	if err != nil {
		return nil, err
	}

	var out Entitlements
	err = s.read(ctx, "get_entitlements", func(tx Tx) error {
		customer, err := tx.GetCustomer(customerID)
		if err != nil {
			return err
		}
		if !customer.IsActive {
			return &NotFoundError{Entity: "customer", ID: customerID}
		}

		active, err := tx.FindSubscription(customerID, models.SubscriptionStatusActive)
		if err != nil {
			return err
		}
		pending, err := tx.FindSubscription(customerID, models.SubscriptionStatusPending)
		if err != nil {
			return err
		}
		if pending != nil {
			// A rejected or expired payment leaves its PENDING row behind
			// until the next request reuses it.
			inFlight, err := tx.HasPendingPayment(customerID)
			if err != nil {
				return err
			}
			if !inFlight {
				pending = nil
			}
		}

		res := entitlements.Resolve(customer, active, s.now())
		if res.Drift {
			log.Warnf("[Billing] Customer %s caches plan %s but subscription %s grants %s",
				customerID, customer.PlanID, res.Subscription.ID, res.PlanID)
		}

		var current *models.Plan
		if res.PlanID != "" {
			current, err = tx.GetPlan(res.PlanID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		if current == nil {
			if current, err = tx.DefaultFreePlan(); err != nil {
				return err
			}
		}

		plans, err := tx.ListActivePlans()
		if err != nil {
			return err
		}
		sortPlans(plans)

		out = Entitlements{
			Customer:            customer,
			CurrentPlan:         current,
			Subscription:        res.Subscription,
			PendingSubscription: pending,
			AvailablePlans:      plans,
			Source:              res.Source,
			Snapshot:            entitlements.FromPlan(current),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPlans returns the active plan catalog ordered by price.
func (s *Service) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := s.read(ctx, "list_plans", func(tx Tx) error {
		var err error
		plans, err = tx.ListActivePlans()
		return err
	})
	if err != nil {
		return nil, err
	}
	sortPlans(plans)
	return plans, nil
}

func sortPlans(plans []models.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].LessThan(&plans[j])
	})
}
