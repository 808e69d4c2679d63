package billing

import (
	"context"
	"time"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

// Store opens units of work over the billing tables.
type Store interface {
	// Transaction runs fn in one read-write transaction. Returning an error
	// rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	// ReadOnly runs fn in a read-committed, read-only transaction.
	ReadOnly(ctx context.Context, fn func(tx Tx) error) error
}

// PaymentQuery is the storage-level form of PaymentFilter.
type PaymentQuery struct {
	Status     string
	CustomerID string
	Offset     int
	Limit      int
}

// Tx exposes the operations available inside a unit of work. Get* methods
// return *NotFoundError for missing rows; Find* methods return nil, nil.
type Tx interface {
	notify.Writer

	GetPlan(id string) (*models.Plan, error)
	ListActivePlans() ([]models.Plan, error)
	// DefaultFreePlan returns the cheapest active plan priced at zero.
	DefaultFreePlan() (*models.Plan, error)

	GetCustomer(id string) (*models.Customer, error)
	// LockCustomer reads the customer with SELECT ... FOR UPDATE.
	LockCustomer(id string) (*models.Customer, error)
	SetCustomerPlan(customerID, planID string) error

	FindSubscription(customerID, status string) (*models.Subscription, error)
	GetSubscription(id string) (*models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error
	// CancelActiveSubscriptions moves every ACTIVE subscription of the
	// customer except exceptID to CANCELLED.
	CancelActiveSubscriptions(customerID, exceptID string, now time.Time) (int64, error)
	ListLapsedSubscriptions(now time.Time, limit int) ([]models.Subscription, error)

	CreatePayment(p *models.Payment) error
	// GetPayment loads the payment with customer and subscription plan.
	GetPayment(id string) (*models.Payment, error)
	HasPendingPayment(customerID string) (bool, error)
	// ClaimPayment moves a PENDING payment to status. It reports false when
	// the payment was no longer PENDING.
	ClaimPayment(id, status string, claim models.PaymentClaim) (bool, error)
	ListPayments(q PaymentQuery) ([]models.Payment, int64, error)
	ListStalePayments(now time.Time, limit int) ([]models.Payment, error)

	ListNotifications(recipientID string, offset, limit int) ([]models.Notification, int64, error)
	MarkNotificationRead(recipientID, id string) (bool, error)
}
