package repository

import (
	"github.com/ManuelReschke/EventFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetByID(id string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive returns active plans ordered by price, then sort order
func (r *planRepository) ListActive() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("is_active = ?", true).
		Order("price ASC, sort_order ASC, id ASC").
		Find(&plans).Error
	return plans, err
}

// DefaultFree returns the cheapest active plan priced at zero
func (r *planRepository) DefaultFree() (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("is_active = ? AND price <= ?", true, 0).
		Order("price ASC, sort_order ASC, id ASC").
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Upsert creates the plan or refreshes its catalog fields
func (r *planRepository) Upsert(plan *models.Plan) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"price",
			"currency",
			"max_events",
			"max_photos_per_event",
			"max_storage_gb",
			"custom_domain",
			"analytics",
			"priority_support",
			"api_access",
			"whitelabel",
			"is_active",
			"sort_order",
			"updated_at",
		}),
	}).Create(plan).Error
}
