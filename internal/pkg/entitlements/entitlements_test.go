package entitlements

import (
	"testing"
	"time"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFromPlanAllows(t *testing.T) {
	plan := &models.Plan{
		ID:           "pro",
		Name:         "Pro",
		Price:        decimal.RequireFromString("19.00"),
		MaxEvents:    intPtr(10),
		Analytics:    true,
		CustomDomain: true,
	}
	s := FromPlan(plan)

	assert.Equal(t, "pro", s.PlanID)
	assert.True(t, s.Allows(FeatureAnalytics))
	assert.True(t, s.Allows(FeatureCustomDomain))
	assert.False(t, s.Allows(FeatureWhitelabel))
	assert.False(t, s.Allows(Feature("teleport")))

	*plan.MaxEvents = 99
	max, limited := s.Max(LimitEvents)
	assert.True(t, limited)
	assert.Equal(t, 10, max)
}

func TestWithinLimit(t *testing.T) {
	s := Snapshot{Limits: Limits{MaxEvents: intPtr(3), MaxStorageGB: intPtr(0)}}

	tests := []struct {
		name    string
		limit   Limit
		current int
		want    bool
	}{
		{"below cap", LimitEvents, 2, true},
		{"at cap", LimitEvents, 3, false},
		{"above cap", LimitEvents, 5, false},
		{"unlimited", LimitPhotosPerEvent, 100000, true},
		{"zero cap", LimitStorageGB, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.WithinLimit(tt.limit, tt.current))
		})
	}

	assert.Equal(t, 1, s.Remaining(LimitEvents, 2))
	assert.Equal(t, 0, s.Remaining(LimitEvents, 7))
	assert.Equal(t, -1, s.Remaining(LimitPhotosPerEvent, 7))
}

func TestResolve(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)
	customer := &models.Customer{ID: "c1", PlanID: "free"}

	t.Run("entitling subscription wins", func(t *testing.T) {
		sub := &models.Subscription{ID: "s1", PlanID: "pro", Status: models.SubscriptionStatusActive, EndDate: &future}
		res := Resolve(customer, sub, now)
		require.NotNil(t, res.Subscription)
		assert.Equal(t, "pro", res.PlanID)
		assert.Equal(t, SourceSubscription, res.Source)
		assert.True(t, res.Drift)
	})

	t.Run("lapsed subscription falls back to cache", func(t *testing.T) {
		sub := &models.Subscription{ID: "s1", PlanID: "pro", Status: models.SubscriptionStatusActive, EndDate: &past}
		res := Resolve(customer, sub, now)
		assert.Nil(t, res.Subscription)
		assert.Equal(t, "free", res.PlanID)
		assert.Equal(t, SourceCustomerPlan, res.Source)
		assert.False(t, res.Drift)
	})

	t.Run("no subscription", func(t *testing.T) {
		res := Resolve(customer, nil, now)
		assert.Equal(t, "free", res.PlanID)
	})

	t.Run("cache in sync", func(t *testing.T) {
		sub := &models.Subscription{ID: "s2", PlanID: "free", Status: models.SubscriptionStatusActive}
		res := Resolve(customer, sub, now)
		assert.False(t, res.Drift)
		assert.Equal(t, SourceSubscription, res.Source)
	})
}
