package billing_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

func requestPro(t *testing.T, f *fixture) *billing.PlanChangeResult {
	t.Helper()
	res, err := f.service.RequestPlanChange(context.Background(), customerID, planPro)
	require.NoError(t, err)
	return res
}

func TestScenarioAApproveUpgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := requestPro(t, f)
	p, ok := f.store.Payment(res.PaymentID)
	require.True(t, ok)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.True(t, decimal.RequireFromString("29.99").Equal(p.Amount))
	c, _ := f.store.Customer(customerID)
	assert.Equal(t, planFree, c.PlanID)

	f.advance(time.Hour)
	view, err := f.service.ApprovePayment(ctx, billing.AdminDecision{
		PaymentID:     res.PaymentID,
		AdminID:       adminID,
		TransactionID: "BANK-4711",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, view.Status)
	require.NotNil(t, view.TransactionID)
	assert.Equal(t, "BANK-4711", *view.TransactionID)
	require.NotNil(t, view.Customer)
	assert.Equal(t, "anna@example.com", view.Customer.Email)
	require.NotNil(t, view.Subscription)
	assert.Equal(t, models.SubscriptionStatusActive, view.Subscription.Status)

	p, _ = f.store.Payment(res.PaymentID)
	require.NotNil(t, p.ProcessedBy)
	assert.Equal(t, adminID, *p.ProcessedBy)
	require.NotNil(t, p.ProcessedAt)
	assert.Equal(t, f.now, *p.ProcessedAt)

	c, _ = f.store.Customer(customerID)
	assert.Equal(t, planPro, c.PlanID)

	subs := f.store.Subscriptions(customerID)
	require.Len(t, subs, 1)
	sub := subs[0]
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, f.now, *sub.StartDate)
	assert.Equal(t, sub.StartDate.AddDate(0, 0, 30), *sub.EndDate)

	var billingNotes int
	for _, n := range f.store.Notifications(customerID) {
		if n.Type == models.NotificationTypeBilling {
			billingNotes++
		}
	}
	assert.Equal(t, 2, billingNotes)

	ent, err := f.service.GetEntitlements(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, planPro, ent.CurrentPlan.ID)
	assert.True(t, ent.Allows(entitlements.FeatureAnalytics))
}

func TestApproveCancelsPreviousActiveSubscription(t *testing.T) {
	f := newFixture(t)
	f.activeSubscription("sub-free", planFree, nil)

	res := requestPro(t, f)
	_, err := f.service.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
	require.NoError(t, err)

	statuses := map[string]string{}
	for _, sub := range f.store.Subscriptions(customerID) {
		statuses[sub.ID] = sub.Status
	}
	assert.Equal(t, models.SubscriptionStatusCancelled, statuses["sub-free"])
	assert.Equal(t, models.SubscriptionStatusActive, statuses[res.SubscriptionID])
}

func TestApproveGeneratesTransactionReference(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)

	view, err := f.service.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID, TransactionID: "  "})
	require.NoError(t, err)
	require.NotNil(t, view.TransactionID)
	assert.True(t, strings.HasPrefix(*view.TransactionID, "TRX-20250601-"), *view.TransactionID)
}

func TestScenarioCRejectPayment(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)

	view, err := f.service.RejectPayment(context.Background(), billing.AdminDecision{
		PaymentID: res.PaymentID,
		AdminID:   adminID,
		Notes:     "insufficient funds",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, view.Status)
	assert.Contains(t, view.Description, "insufficient funds")
	assert.Nil(t, view.TransactionID)

	c, _ := f.store.Customer(customerID)
	assert.Equal(t, planFree, c.PlanID)

	subs := f.store.Subscriptions(customerID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusPending, subs[0].Status)

	notes := f.store.Notifications(customerID)
	require.Len(t, notes, 2)
	assert.Equal(t, models.NotificationTypeBilling, notes[1].Type)
	assert.Contains(t, notes[1].Message, "insufficient funds")
}

func TestDecisionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ApprovePayment(ctx, billing.AdminDecision{AdminID: adminID})
	assert.ErrorIs(t, err, billing.ErrValidation)

	_, err = f.service.RejectPayment(ctx, billing.AdminDecision{PaymentID: "p"})
	assert.ErrorIs(t, err, billing.ErrValidation)

	_, err = f.service.ApprovePayment(ctx, billing.AdminDecision{PaymentID: "missing", AdminID: adminID})
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestApproveTransactionIDFitsColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := requestPro(t, f)

	_, err := f.service.ApprovePayment(ctx, billing.AdminDecision{
		PaymentID:     res.PaymentID,
		AdminID:       adminID,
		TransactionID: strings.Repeat("7", models.MaxTransactionIDLength+1),
	})
	var ve *billing.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "transaction_id", ve.Field)

	p, _ := f.store.Payment(res.PaymentID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Len(t, f.recorder.Messages(), 1)
}

func TestApproveKeepsAdminNotes(t *testing.T) {
	tests := []struct {
		name  string
		notes string
		want  string
	}{
		{"without notes", "", "Upgrade to Pro"},
		{"with notes", "  matched statement 2025-06  ", "Upgrade to Pro (Approved: matched statement 2025-06)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := requestPro(t, f)

			view, err := f.service.ApprovePayment(context.Background(), billing.AdminDecision{
				PaymentID: res.PaymentID,
				AdminID:   adminID,
				Notes:     tt.notes,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, view.Description)
		})
	}
}

func TestTerminalPaymentsStayTerminal(t *testing.T) {
	tests := []struct {
		name   string
		first  func(s *billing.Service, d billing.AdminDecision) error
		second func(s *billing.Service, d billing.AdminDecision) error
		status string
	}{
		{"approve twice", approve, approve, models.PaymentStatusCompleted},
		{"reject twice", reject, reject, models.PaymentStatusFailed},
		{"reject after approve", approve, reject, models.PaymentStatusCompleted},
		{"approve after reject", reject, approve, models.PaymentStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := requestPro(t, f)
			d := billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID, Notes: "n"}

			require.NoError(t, tt.first(f.service, d))
			notesBefore := len(f.store.Notifications(customerID))
			subsBefore := f.store.Subscriptions(customerID)

			err := tt.second(f.service, d)
			require.ErrorIs(t, err, billing.ErrPolicyViolation)
			assert.Equal(t, billing.ReasonAlreadyProcessed, billing.Reason(err))

			p, _ := f.store.Payment(res.PaymentID)
			assert.Equal(t, tt.status, p.Status)
			assert.Len(t, f.store.Notifications(customerID), notesBefore)
			assert.Equal(t, subsBefore, f.store.Subscriptions(customerID))
		})
	}
}

func approve(s *billing.Service, d billing.AdminDecision) error {
	_, err := s.ApprovePayment(context.Background(), d)
	return err
}

func reject(s *billing.Service, d billing.AdminDecision) error {
	_, err := s.RejectPayment(context.Background(), d)
	return err
}

func TestScenarioDConcurrentApprovals(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, billing.ErrPolicyViolation)
		assert.Equal(t, billing.ReasonAlreadyProcessed, billing.Reason(err))
	}
	assert.Equal(t, 1, ok)

	var approvals int
	for _, n := range f.store.Notifications(customerID) {
		if n.Title == "Payment approved" {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals)
}

// staleStore hands out a PENDING snapshot of a payment that was decided
// already, so only the conditional claim can catch the race.
type staleStore struct {
	billing.Store
	stale models.Payment
}

func (s *staleStore) Transaction(ctx context.Context, fn func(tx billing.Tx) error) error {
	return s.Store.Transaction(ctx, func(tx billing.Tx) error {
		return fn(&staleTx{Tx: tx, stale: s.stale})
	})
}

func (s *staleStore) ReadOnly(ctx context.Context, fn func(tx billing.Tx) error) error {
	return s.Store.ReadOnly(ctx, func(tx billing.Tx) error {
		return fn(&staleTx{Tx: tx, stale: s.stale})
	})
}

type staleTx struct {
	billing.Tx
	stale models.Payment
}

func (t *staleTx) GetPayment(id string) (*models.Payment, error) {
	if id == t.stale.ID {
		p := t.stale
		return &p, nil
	}
	return t.Tx.GetPayment(id)
}

func (t *staleTx) ListStalePayments(now time.Time, limit int) ([]models.Payment, error) {
	if t.stale.ExpiresAt.After(now) {
		return nil, nil
	}
	return []models.Payment{t.stale}, nil
}

func TestClaimGateReportsConcurrencyConflict(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)
	snapshot, _ := f.store.Payment(res.PaymentID)

	_, err := f.service.RejectPayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: "admin-2"})
	require.NoError(t, err)
	notesBefore := len(f.store.Notifications(customerID))

	racer := billing.NewService(&staleStore{Store: f.store, stale: snapshot}, testSettings())
	_, err = racer.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrConcurrencyConflict)
	assert.ErrorIs(t, err, billing.ErrPolicyViolation)
	assert.Equal(t, billing.ReasonAlreadyProcessed, billing.Reason(err))

	var conflict *billing.ConcurrencyConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, res.PaymentID, conflict.PaymentID)

	p, _ := f.store.Payment(res.PaymentID)
	assert.Equal(t, models.PaymentStatusFailed, p.Status)
	c, _ := f.store.Customer(customerID)
	assert.Equal(t, planFree, c.PlanID)
	assert.Len(t, f.store.Notifications(customerID), notesBefore)
}

func TestFailedNotificationRollsBackApproval(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)
	delivered := len(f.recorder.Messages())

	f.store.FailOn("CreateNotification", errors.New("connection reset"))
	_, err := f.service.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrPersistence)

	p, _ := f.store.Payment(res.PaymentID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Nil(t, p.TransactionID)
	c, _ := f.store.Customer(customerID)
	assert.Equal(t, planFree, c.PlanID)
	subs := f.store.Subscriptions(customerID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusPending, subs[0].Status)
	assert.Len(t, f.recorder.Messages(), delivered)

	f.store.FailOn("CreateNotification", nil)
	_, err = f.service.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
	require.NoError(t, err)
}

func TestDeliveryFailureDoesNotFailApproval(t *testing.T) {
	f := newFixture(t)
	res := requestPro(t, f)

	failing := &notify.Recorder{Err: errors.New("smtp unavailable")}
	svc := billing.NewService(f.store, testSettings(), billing.WithDeliverer(failing), billing.WithClock(f.clock))

	view, err := svc.ApprovePayment(context.Background(), billing.AdminDecision{PaymentID: res.PaymentID, AdminID: adminID})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, view.Status)
	assert.Empty(t, failing.Messages())
	assert.Len(t, f.store.Notifications(customerID), 2)
}
