package repository

import (
	"github.com/ManuelReschke/EventFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(id string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetForUpdate reads the customer row with SELECT ... FOR UPDATE
func (r *customerRepository) GetForUpdate(id string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdatePlan writes the entitlement cache
func (r *customerRepository) UpdatePlan(customerID, planID string) error {
	return r.db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("plan_id", planID).Error
}

func (r *customerRepository) Create(customer *models.Customer) error {
	return r.db.Omit(clause.Associations).Create(customer).Error
}
