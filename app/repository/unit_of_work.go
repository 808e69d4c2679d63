package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

// unitOfWork adapts repositories bound to one *gorm.DB transaction to
// billing.Tx.
type unitOfWork struct {
	repos *Repositories
}

func newUnitOfWork(tx *gorm.DB) *unitOfWork {
	return &unitOfWork{repos: NewRepositories(tx)}
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &billing.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func (u *unitOfWork) GetPlan(id string) (*models.Plan, error) {
	plan, err := u.repos.Plan.GetByID(id)
	return plan, notFound(err, "plan", id)
}

func (u *unitOfWork) ListActivePlans() ([]models.Plan, error) {
	return u.repos.Plan.ListActive()
}

func (u *unitOfWork) DefaultFreePlan() (*models.Plan, error) {
	plan, err := u.repos.Plan.DefaultFree()
	return plan, notFound(err, "plan", "default free")
}

func (u *unitOfWork) GetCustomer(id string) (*models.Customer, error) {
	customer, err := u.repos.Customer.GetByID(id)
	return customer, notFound(err, "customer", id)
}

func (u *unitOfWork) LockCustomer(id string) (*models.Customer, error) {
	customer, err := u.repos.Customer.GetForUpdate(id)
	return customer, notFound(err, "customer", id)
}

func (u *unitOfWork) SetCustomerPlan(customerID, planID string) error {
	return u.repos.Customer.UpdatePlan(customerID, planID)
}

func (u *unitOfWork) FindSubscription(customerID, status string) (*models.Subscription, error) {
	return u.repos.Subscription.FindLatest(customerID, status)
}

func (u *unitOfWork) GetSubscription(id string) (*models.Subscription, error) {
	sub, err := u.repos.Subscription.GetByID(id)
	return sub, notFound(err, "subscription", id)
}

func (u *unitOfWork) SaveSubscription(sub *models.Subscription) error {
	return u.repos.Subscription.Save(sub)
}

func (u *unitOfWork) CancelActiveSubscriptions(customerID, exceptID string, now time.Time) (int64, error) {
	return u.repos.Subscription.CancelActive(customerID, exceptID, now)
}

func (u *unitOfWork) ListLapsedSubscriptions(now time.Time, limit int) ([]models.Subscription, error) {
	return u.repos.Subscription.ListLapsed(now, limit)
}

func (u *unitOfWork) CreatePayment(p *models.Payment) error {
	return u.repos.Payment.Create(p)
}

func (u *unitOfWork) GetPayment(id string) (*models.Payment, error) {
	payment, err := u.repos.Payment.GetByID(id)
	return payment, notFound(err, "payment", id)
}

func (u *unitOfWork) HasPendingPayment(customerID string) (bool, error) {
	n, err := u.repos.Payment.CountPending(customerID)
	return n > 0, err
}

func (u *unitOfWork) ClaimPayment(id, status string, claim models.PaymentClaim) (bool, error) {
	return u.repos.Payment.Claim(id, status, claim)
}

func (u *unitOfWork) ListPayments(q billing.PaymentQuery) ([]models.Payment, int64, error) {
	return u.repos.Payment.List(PaymentFilter{
		Status:     q.Status,
		CustomerID: q.CustomerID,
		Offset:     q.Offset,
		Limit:      q.Limit,
	})
}

func (u *unitOfWork) ListStalePayments(now time.Time, limit int) ([]models.Payment, error) {
	return u.repos.Payment.ListStale(now, limit)
}

func (u *unitOfWork) CreateNotification(n *models.Notification) error {
	return u.repos.Notification.Create(n)
}

func (u *unitOfWork) ListNotifications(recipientID string, offset, limit int) ([]models.Notification, int64, error) {
	return u.repos.Notification.ListByRecipient(recipientID, offset, limit)
}

func (u *unitOfWork) MarkNotificationRead(recipientID, id string) (bool, error) {
	return u.repos.Notification.MarkRead(recipientID, id)
}

var _ billing.Tx = (*unitOfWork)(nil)
