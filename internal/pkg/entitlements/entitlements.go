package entitlements

import (
	"time"

	"github.com/ManuelReschke/EventFox/app/models"
)

type Feature string

const (
	FeatureCustomDomain    Feature = "custom_domain"
	FeatureAnalytics       Feature = "analytics"
	FeaturePrioritySupport Feature = "priority_support"
	FeatureAPIAccess       Feature = "api_access"
	FeatureWhitelabel      Feature = "whitelabel"
)

type Limit string

const (
	LimitEvents         Limit = "events"
	LimitPhotosPerEvent Limit = "photos_per_event"
	LimitStorageGB      Limit = "storage_gb"
)

const (
	SourceSubscription = "subscription"
	SourceCustomerPlan = "customer_plan"
)

// Limits of a plan. Nil means unlimited.
type Limits struct {
	MaxEvents         *int `json:"max_events"`
	MaxPhotosPerEvent *int `json:"max_photos_per_event"`
	MaxStorageGB      *int `json:"max_storage_gb"`
}

type Features struct {
	CustomDomain    bool `json:"custom_domain"`
	Analytics       bool `json:"analytics"`
	PrioritySupport bool `json:"priority_support"`
	APIAccess       bool `json:"api_access"`
	Whitelabel      bool `json:"whitelabel"`
}

// Snapshot is what a plan grants at resolution time.
type Snapshot struct {
	PlanID   string   `json:"plan_id"`
	PlanName string   `json:"plan_name"`
	Limits   Limits   `json:"limits"`
	Features Features `json:"features"`
}

// FromPlan copies limits and feature flags of a plan.
func FromPlan(p *models.Plan) Snapshot {
	if p == nil {
		return Snapshot{}
	}
	return Snapshot{
		PlanID:   p.ID,
		PlanName: p.Name,
		Limits: Limits{
			MaxEvents:         copyInt(p.MaxEvents),
			MaxPhotosPerEvent: copyInt(p.MaxPhotosPerEvent),
			MaxStorageGB:      copyInt(p.MaxStorageGB),
		},
		Features: Features{
			CustomDomain:    p.CustomDomain,
			Analytics:       p.Analytics,
			PrioritySupport: p.PrioritySupport,
			APIAccess:       p.APIAccess,
			Whitelabel:      p.Whitelabel,
		},
	}
}

// Allows reports whether the plan enables a feature. Unknown features are denied.
func (s Snapshot) Allows(f Feature) bool {
	switch f {
	case FeatureCustomDomain:
		return s.Features.CustomDomain
	case FeatureAnalytics:
		return s.Features.Analytics
	case FeaturePrioritySupport:
		return s.Features.PrioritySupport
	case FeatureAPIAccess:
		return s.Features.APIAccess
	case FeatureWhitelabel:
		return s.Features.Whitelabel
	}
	return false
}

// Max returns the cap for a limit. ok is false when the limit is unlimited.
func (s Snapshot) Max(l Limit) (max int, ok bool) {
	var v *int
	switch l {
	case LimitEvents:
		v = s.Limits.MaxEvents
	case LimitPhotosPerEvent:
		v = s.Limits.MaxPhotosPerEvent
	case LimitStorageGB:
		v = s.Limits.MaxStorageGB
	default:
		return 0, true
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// WithinLimit reports whether one more unit fits on top of current usage.
func (s Snapshot) WithinLimit(l Limit, current int) bool {
	max, limited := s.Max(l)
	if !limited {
		return true
	}
	return current < max
}

// Remaining returns how many units are left, or -1 when unlimited.
func (s Snapshot) Remaining(l Limit, current int) int {
	max, limited := s.Max(l)
	if !limited {
		return -1
	}
	if current >= max {
		return 0
	}
	return max - current
}

// Resolution says which plan currently entitles a customer.
type Resolution struct {
	PlanID       string
	Subscription *models.Subscription
	Source       string
	// Drift is set when the cached Customer.PlanID disagrees with the
	// entitling subscription.
	Drift bool
}

// Resolve applies the entitlement rule: the ACTIVE subscription whose end
// date is unset or after now decides the plan. Customer.PlanID is only
// consulted when no such subscription exists.
func Resolve(customer *models.Customer, active *models.Subscription, now time.Time) Resolution {
	if active != nil && active.IsEntitling(now) {
		return Resolution{
			PlanID:       active.PlanID,
			Subscription: active,
			Source:       SourceSubscription,
			Drift:        customer != nil && customer.PlanID != active.PlanID,
		}
	}
	res := Resolution{Source: SourceCustomerPlan}
	if customer != nil {
		res.PlanID = customer.PlanID
	}
	return res
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
