package reaper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing/memory"
)

type fakeSweeper struct {
	mu       sync.Mutex
	payments int
	subs     int
	err      error
}

func (f *fakeSweeper) ExpireStalePayments(ctx context.Context, now time.Time, batch int) (billing.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments++
	return billing.SweepResult{Expired: 2}, f.err
}

func (f *fakeSweeper) ExpireLapsedSubscriptions(ctx context.Context, now time.Time, batch int) (billing.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs++
	return billing.SweepResult{Expired: 1}, nil
}

type fakeLocker struct {
	held     bool
	err      error
	released int
}

func (f *fakeLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held {
		return nil, false, nil
	}
	return func() { f.released++ }, true, nil
}

func TestRunOnceSweepsBoth(t *testing.T) {
	sw := &fakeSweeper{}
	lk := &fakeLocker{}
	m := NewManager(Config{}, sw, lk)

	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Payments.Expired)
	assert.Equal(t, 1, report.Subscriptions.Expired)
	assert.False(t, report.LockHeld)
	assert.Equal(t, 1, lk.released)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	sw := &fakeSweeper{}
	m := NewManager(Config{}, sw, &fakeLocker{held: true})

	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.LockHeld)
	assert.Equal(t, 0, sw.payments)
}

func TestRunOnceSweepsWhenLockUnavailable(t *testing.T) {
	sw := &fakeSweeper{}
	m := NewManager(Config{}, sw, &fakeLocker{err: errors.New("dial tcp: connection refused")})

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sw.payments)
	assert.Equal(t, 1, sw.subs)
}

func TestRunOnceStopsOnSweepError(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("db down")}
	m := NewManager(Config{}, sw, nil)

	_, err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, sw.subs)
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager(Config{Schedule: "@every 1h"}, &fakeSweeper{}, nil)
	assert.False(t, m.IsRunning())

	require.NoError(t, m.Start())
	assert.True(t, m.IsRunning())
	require.NoError(t, m.Start())

	m.Stop()
	assert.False(t, m.IsRunning())
	m.Stop()

	bad := NewManager(Config{Schedule: "every tuesday-ish"}, &fakeSweeper{}, nil)
	assert.Error(t, bad.Start())
	assert.False(t, bad.IsRunning())
}

func TestRunOnceWithBillingService(t *testing.T) {
	store := memory.New()
	store.AddPlan(models.Plan{ID: "free", Name: "Free", Price: decimal.Zero, IsActive: true})
	store.AddPlan(models.Plan{ID: "pro", Name: "Pro", Price: decimal.RequireFromString("29.99"), IsActive: true})
	store.AddCustomer(models.Customer{ID: "c1", Name: "Anna", Email: "anna@example.com", PlanID: "free", IsActive: true})

	created := time.Now().UTC().Add(-80 * time.Hour)
	svc := billing.NewService(store, models.PaymentSettings{TimeoutHours: 72}, billing.WithClock(func() time.Time { return created }))
	res, err := svc.RequestPlanChange(context.Background(), "c1", "pro")
	require.NoError(t, err)

	m := NewManager(Config{}, svc, nil)
	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Payments.Expired)

	p, _ := store.Payment(res.PaymentID)
	assert.Equal(t, models.PaymentStatusFailed, p.Status)
}
