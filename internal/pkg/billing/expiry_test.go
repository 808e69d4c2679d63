package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

func TestExpireStalePayments(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)

	early, err := f.service.ExpireStalePayments(context.Background(), f.now.Add(71*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, billing.SweepResult{}, early)
	p, _ := f.store.Payment(res.PaymentID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)

	deadline := f.now.Add(72 * time.Hour)
	out, err := f.service.ExpireStalePayments(context.Background(), deadline, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Expired)

	p, _ = f.store.Payment(res.PaymentID)
	assert.Equal(t, models.PaymentStatusFailed, p.Status)
	assert.Equal(t, "Expired: no transfer received within 72 hours", p.Description)
	assert.Nil(t, p.ProcessedBy)

	c, _ := f.store.Customer(customerID)
	assert.Equal(t, planFree, c.PlanID)

	notes := f.store.Notifications(customerID)
	require.Len(t, notes, 2)
	assert.Equal(t, "Payment request expired", notes[1].Title)

	again, err := f.service.ExpireStalePayments(context.Background(), deadline.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Expired)
}

func TestExpireStalePaymentsNeverOverridesAdmin(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)
	snapshot, _ := f.store.Payment(res.PaymentID)

	_, err := f.service.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
	require.NoError(t, err)

	racer := billing.NewService(&staleStore{Store: f.store, stale: snapshot}, testSettings())
	out, err := racer.ExpireStalePayments(context.Background(), f.now.Add(100*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Expired)
	assert.Equal(t, 1, out.Skipped)

	p, _ := f.store.Payment(res.PaymentID)
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	c, _ := f.store.Customer(customerID)
	assert.Equal(t, planPro, c.PlanID)
}

func TestExpireLapsedSubscriptions(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)
	_, err := f.service.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
	require.NoError(t, err)

	out, err := f.service.ExpireLapsedSubscriptions(context.Background(), f.now.Add(29*24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Expired)

	f.advance(30 * 24 * time.Hour)
	out, err = f.service.ExpireLapsedSubscriptions(context.Background(), f.now, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Expired)

	subs := f.store.Subscriptions(customerID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusExpired, subs[0].Status)

	c, _ := f.store.Customer(customerID)
	assert.Equal(t, planFree, c.PlanID)

	ent, err := f.service.GetEntitlements(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, planFree, ent.CurrentPlan.ID)

	notes := f.store.Notifications(customerID)
	assert.Equal(t, "Subscription expired", notes[len(notes)-1].Title)
}

func TestExpireLapsedSubscriptionsWithoutFreePlan(t *testing.T) {
	f := newFixture(t)
	end := f.now.Add(-time.Hour)
	f.activeSubscription("sub-pro", planPro, &end)
	f.store.AddPlan(models.Plan{ID: planFree, Name: "Free", IsActive: false})

	out, err := f.service.ExpireLapsedSubscriptions(context.Background(), f.now, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Failed)

	subs := f.store.Subscriptions(customerID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusActive, subs[0].Status)
}
