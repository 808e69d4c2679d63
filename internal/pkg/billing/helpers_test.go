package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing/memory"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

const (
	planFree     = "plan-free"
	planPro      = "plan-pro"
	planBusiness = "plan-business"
	planRetired  = "plan-retired"
	customerID   = "cust-1"
	adminID      = "admin-1"
)

func intPtr(v int) *int { return &v }

type fixture struct {
	store    *memory.Store
	service  *billing.Service
	recorder *notify.Recorder
	now      time.Time
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func testSettings() models.PaymentSettings {
	return models.PaymentSettings{
		BankName:      "Sparkasse Leipzig",
		AccountHolder: "EventFox GmbH",
		AccountNumber: "0532013000",
		IBAN:          "DE89370400440532013000",
		SWIFT:         "COBADEFFXXX",
		TimeoutHours:  72,
		Currency:      "EUR",
	}
}

func seedPlans(store *memory.Store) {
	store.AddPlan(models.Plan{ID: planFree, Name: "Free", Price: decimal.Zero, Currency: "EUR",
		MaxEvents: intPtr(1), MaxPhotosPerEvent: intPtr(100), IsActive: true, SortOrder: 1})
	store.AddPlan(models.Plan{ID: planPro, Name: "Pro", Price: decimal.RequireFromString("29.99"), Currency: "EUR",
		MaxEvents: intPtr(10), Analytics: true, CustomDomain: true, IsActive: true, SortOrder: 2})
	store.AddPlan(models.Plan{ID: planBusiness, Name: "Business", Price: decimal.RequireFromString("79.00"), Currency: "EUR",
		Analytics: true, CustomDomain: true, APIAccess: true, Whitelabel: true, PrioritySupport: true, IsActive: true, SortOrder: 3})
	store.AddPlan(models.Plan{ID: planRetired, Name: "Legacy", Price: decimal.RequireFromString("99.00"), Currency: "EUR", IsActive: false})
}

func newFixture(t *testing.T, opts ...billing.Option) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		recorder: &notify.Recorder{},
		now:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	seedPlans(f.store)
	f.store.AddCustomer(models.Customer{ID: customerID, Name: "Anna Schmidt", Email: "anna@example.com", PlanID: planFree, IsActive: true})

	base := []billing.Option{billing.WithClock(f.clock), billing.WithDeliverer(f.recorder)}
	f.service = billing.NewService(f.store, testSettings(), append(base, opts...)...)
	return f
}

// activeSubscription puts the customer on planID through an ACTIVE
// subscription and keeps the cache in sync.
func (f *fixture) activeSubscription(id, planID string, end *time.Time) {
	start := f.now.Add(-24 * time.Hour)
	f.store.AddSubscription(models.Subscription{
		ID: id, CustomerID: customerID, PlanID: planID, Status: models.SubscriptionStatusActive,
		StartDate: &start, EndDate: end, CreatedAt: start,
	})
	c, _ := f.store.Customer(customerID)
	c.PlanID = planID
	f.store.AddCustomer(c)
}
