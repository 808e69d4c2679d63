package database

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/EventFox/app/models"
)

const (
	PlanFreeID     = "free"
	PlanProID      = "pro"
	PlanBusinessID = "business"
)

// PlanUpserter is satisfied by repository.PlanRepository.
type PlanUpserter interface {
	Upsert(plan *models.Plan) error
}

func limit(v int) *int { return &v }

// DefaultPlans is the catalog shipped with a fresh installation.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{
			ID:                PlanFreeID,
			Name:              "Free",
			Price:             decimal.Zero,
			Currency:          models.DefaultCurrency,
			MaxEvents:         limit(1),
			MaxPhotosPerEvent: limit(100),
			MaxStorageGB:      limit(1),
			IsActive:          true,
			SortOrder:         1,
		},
		{
			ID:                PlanProID,
			Name:              "Pro",
			Price:             decimal.RequireFromString("29.99"),
			Currency:          models.DefaultCurrency,
			MaxEvents:         limit(10),
			MaxPhotosPerEvent: limit(2000),
			MaxStorageGB:      limit(50),
			CustomDomain:      true,
			Analytics:         true,
			IsActive:          true,
			SortOrder:         2,
		},
		{
			ID:              PlanBusinessID,
			Name:            "Business",
			Price:           decimal.RequireFromString("79.00"),
			Currency:        models.DefaultCurrency,
			MaxStorageGB:    limit(500),
			CustomDomain:    true,
			Analytics:       true,
			PrioritySupport: true,
			APIAccess:       true,
			Whitelabel:      true,
			IsActive:        true,
			SortOrder:       3,
		},
	}
}

// SeedPlans upserts the default catalog.
func SeedPlans(repo PlanUpserter) error {
	for _, plan := range DefaultPlans() {
		p := plan
		if err := repo.Upsert(&p); err != nil {
			return err
		}
	}
	log.Infof("[Database] Seeded %d plans", len(DefaultPlans()))
	return nil
}
