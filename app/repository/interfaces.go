package repository

import (
	"time"

	"github.com/ManuelReschke/EventFox/app/models"
	"gorm.io/gorm"
)

// PlanRepository defines the interface for plan catalog operations
type PlanRepository interface {
	GetByID(id string) (*models.Plan, error)
	ListActive() ([]models.Plan, error)
	DefaultFree() (*models.Plan, error)
	Upsert(plan *models.Plan) error
}

// CustomerRepository defines the interface for customer-related database operations
type CustomerRepository interface {
	GetByID(id string) (*models.Customer, error)
	GetForUpdate(id string) (*models.Customer, error)
	UpdatePlan(customerID, planID string) error
	Create(customer *models.Customer) error
}

// SubscriptionRepository defines the interface for subscription operations
type SubscriptionRepository interface {
	GetByID(id string) (*models.Subscription, error)
	FindLatest(customerID, status string) (*models.Subscription, error)
	Save(sub *models.Subscription) error
	CancelActive(customerID, exceptID string, now time.Time) (int64, error)
	ListLapsed(now time.Time, limit int) ([]models.Subscription, error)
}

// PaymentFilter selects payments for listing
type PaymentFilter struct {
	Status     string
	CustomerID string
	Offset     int
	Limit      int
}

// PaymentRepository defines the interface for payment ledger operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id string) (*models.Payment, error)
	CountPending(customerID string) (int64, error)
	Claim(id, status string, claim models.PaymentClaim) (bool, error)
	List(filter PaymentFilter) ([]models.Payment, int64, error)
	ListStale(now time.Time, limit int) ([]models.Payment, error)
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(n *models.Notification) error
	ListByRecipient(recipientID string, offset, limit int) ([]models.Notification, int64, error)
	MarkRead(recipientID, id string) (bool, error)
}

// SettingRepository defines the interface for setting operations
type SettingRepository interface {
	GetPaymentSettings(defaults models.PaymentSettings) (*models.PaymentSettings, error)
	SavePaymentSettings(settings *models.PaymentSettings) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Plan         PlanRepository
	Customer     CustomerRepository
	Subscription SubscriptionRepository
	Payment      PaymentRepository
	Notification NotificationRepository
	Setting      SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Plan:         NewPlanRepository(db),
		Customer:     NewCustomerRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Payment:      NewPaymentRepository(db),
		Notification: NewNotificationRepository(db),
		Setting:      NewSettingRepository(db),
	}
}
