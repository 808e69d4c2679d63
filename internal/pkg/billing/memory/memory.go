// Package memory provides an in-memory implementation of billing.Store.
// It is intended for tests and local development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

var errReadOnly = errors.New("memory: write in read-only transaction")

type state struct {
	seq           int64
	plans         map[string]models.Plan
	customers     map[string]models.Customer
	subscriptions map[string]models.Subscription
	payments      map[string]models.Payment
	notifications []models.Notification
	order         map[string]int64
}

func newState() *state {
	return &state{
		plans:         make(map[string]models.Plan),
		customers:     make(map[string]models.Customer),
		subscriptions: make(map[string]models.Subscription),
		payments:      make(map[string]models.Payment),
		order:         make(map[string]int64),
	}
}

func (st *state) clone() *state {
	c := newState()
	c.seq = st.seq
	for k, v := range st.plans {
		c.plans[k] = v
	}
	for k, v := range st.customers {
		c.customers[k] = v
	}
	for k, v := range st.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range st.payments {
		c.payments[k] = v
	}
	for k, v := range st.order {
		c.order[k] = v
	}
	c.notifications = append([]models.Notification(nil), st.notifications...)
	return c
}

func (st *state) touch(id string) {
	if _, ok := st.order[id]; ok {
		return
	}
	st.seq++
	st.order[id] = st.seq
}

// Store implements billing.Store. One mutex is held for the whole
// transaction, so transactions are serializable.
type Store struct {
	mu    sync.Mutex
	state *state
	fail  map[string]error
}

// New creates an empty store.
func New() *Store {
	return &Store{state: newState(), fail: make(map[string]error)}
}

// FailOn makes the named Tx method (e.g. "CreateNotification") return err
// until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, method)
		return
	}
	s.fail[method] = err
}

// Transaction implements billing.Store
func (s *Store) Transaction(ctx context.Context, fn func(tx billing.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&tx{st: work, fail: s.fail}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// ReadOnly implements billing.Store
func (s *Store) ReadOnly(ctx context.Context, fn func(tx billing.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{st: s.state.clone(), fail: s.fail, readOnly: true})
}

// AddPlan seeds a plan.
func (s *Store) AddPlan(p models.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.plans[p.ID] = p
	s.state.touch(p.ID)
}

// AddCustomer seeds a customer.
func (s *Store) AddCustomer(c models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Plan = nil
	s.state.customers[c.ID] = c
	s.state.touch(c.ID)
}

// AddSubscription seeds a subscription.
func (s *Store) AddSubscription(sub models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.Customer, sub.Plan = nil, nil
	s.state.subscriptions[sub.ID] = sub
	s.state.touch(sub.ID)
}

// AddPayment seeds a payment.
func (s *Store) AddPayment(p models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Customer, p.Subscription = nil, nil
	s.state.payments[p.ID] = p
	s.state.touch(p.ID)
}

// Customer returns the committed customer row.
func (s *Store) Customer(id string) (models.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.customers[id]
	return c, ok
}

// Payment returns the committed payment row.
func (s *Store) Payment(id string) (models.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.payments[id]
	return p, ok
}

// Payments returns all committed payments of a customer.
func (s *Store) Payments(customerID string) []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.state.payments {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.state.order[out[i].ID] < s.state.order[out[j].ID] })
	return out
}

// Subscriptions returns all committed subscriptions of a customer.
func (s *Store) Subscriptions(customerID string) []models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Subscription
	for _, sub := range s.state.subscriptions {
		if sub.CustomerID == customerID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.state.order[out[i].ID] < s.state.order[out[j].ID] })
	return out
}

// Notifications returns committed notifications of a recipient in insertion
// order.
func (s *Store) Notifications(recipientID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.state.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

type tx struct {
	st       *state
	fail     map[string]error
	readOnly bool
}

func (t *tx) check(method string, write bool) error {
	if err := t.fail[method]; err != nil {
		return err
	}
	if write && t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *tx) GetPlan(id string) (*models.Plan, error) {
	if err := t.check("GetPlan", false); err != nil {
		return nil, err
	}
	p, ok := t.st.plans[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "plan", ID: id}
	}
	return &p, nil
}

func (t *tx) ListActivePlans() ([]models.Plan, error) {
	if err := t.check("ListActivePlans", false); err != nil {
		return nil, err
	}
	var out []models.Plan
	for _, p := range t.st.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(&out[j]) })
	return out, nil
}

func (t *tx) DefaultFreePlan() (*models.Plan, error) {
	plans, err := t.ListActivePlans()
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].IsFree() {
			return &plans[i], nil
		}
	}
	return nil, &billing.NotFoundError{Entity: "plan", ID: "default free"}
}

func (t *tx) GetCustomer(id string) (*models.Customer, error) {
	if err := t.check("GetCustomer", false); err != nil {
		return nil, err
	}
	c, ok := t.st.customers[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "customer", ID: id}
	}
	return &c, nil
}

func (t *tx) LockCustomer(id string) (*models.Customer, error) {
	if err := t.check("LockCustomer", false); err != nil {
		return nil, err
	}
	return t.GetCustomer(id)
}

func (t *tx) SetCustomerPlan(customerID, planID string) error {
	if err := t.check("SetCustomerPlan", true); err != nil {
		return err
	}
	c, ok := t.st.customers[customerID]
	if !ok {
		return &billing.NotFoundError{Entity: "customer", ID: customerID}
	}
	c.PlanID = planID
	c.UpdatedAt = time.Now()
	t.st.customers[customerID] = c
	return nil
}

func (t *tx) FindSubscription(customerID, status string) (*models.Subscription, error) {
	if err := t.check("FindSubscription", false); err != nil {
		return nil, err
	}
	var found *models.Subscription
	for _, sub := range t.st.subscriptions {
		if sub.CustomerID != customerID || sub.Status != status {
			continue
		}
		if found == nil || t.newer(sub.CreatedAt, sub.ID, found.CreatedAt, found.ID) {
			s := sub
			found = &s
		}
	}
	return found, nil
}

func (t *tx) GetSubscription(id string) (*models.Subscription, error) {
	if err := t.check("GetSubscription", false); err != nil {
		return nil, err
	}
	sub, ok := t.st.subscriptions[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "subscription", ID: id}
	}
	return &sub, nil
}

func (t *tx) SaveSubscription(sub *models.Subscription) error {
	if err := t.check("SaveSubscription", true); err != nil {
		return err
	}
	if sub.ID == "" {
		return fmt.Errorf("memory: subscription without id")
	}
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	row := *sub
	row.Customer, row.Plan = nil, nil
	t.st.subscriptions[sub.ID] = row
	t.st.touch(sub.ID)
	return nil
}

func (t *tx) CancelActiveSubscriptions(customerID, exceptID string, now time.Time) (int64, error) {
	if err := t.check("CancelActiveSubscriptions", true); err != nil {
		return 0, err
	}
	var n int64
	for id, sub := range t.st.subscriptions {
		if sub.CustomerID != customerID || sub.ID == exceptID || sub.Status != models.SubscriptionStatusActive {
			continue
		}
		sub.Status = models.SubscriptionStatusCancelled
		sub.UpdatedAt = now
		t.st.subscriptions[id] = sub
		n++
	}
	return n, nil
}

func (t *tx) ListLapsedSubscriptions(now time.Time, limit int) ([]models.Subscription, error) {
	if err := t.check("ListLapsedSubscriptions", false); err != nil {
		return nil, err
	}
	var out []models.Subscription
	for _, sub := range t.st.subscriptions {
		if sub.Status == models.SubscriptionStatusActive && sub.EndDate != nil && !sub.EndDate.After(now) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(*out[j].EndDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *tx) CreatePayment(p *models.Payment) error {
	if err := t.check("CreatePayment", true); err != nil {
		return err
	}
	if _, exists := t.st.payments[p.ID]; exists || p.ID == "" {
		return fmt.Errorf("memory: duplicate payment id %q", p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	row := *p
	row.Customer, row.Subscription = nil, nil
	t.st.payments[p.ID] = row
	t.st.touch(p.ID)
	return nil
}

func (t *tx) GetPayment(id string) (*models.Payment, error) {
	if err := t.check("GetPayment", false); err != nil {
		return nil, err
	}
	p, ok := t.st.payments[id]
	if !ok {
		return nil, &billing.NotFoundError{Entity: "payment", ID: id}
	}
	t.enrich(&p)
	return &p, nil
}

func (t *tx) HasPendingPayment(customerID string) (bool, error) {
	if err := t.check("HasPendingPayment", false); err != nil {
		return false, err
	}
	for _, p := range t.st.payments {
		if p.CustomerID == customerID && p.Status == models.PaymentStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) ClaimPayment(id, status string, claim models.PaymentClaim) (bool, error) {
	if err := t.check("ClaimPayment", true); err != nil {
		return false, err
	}
	p, ok := t.st.payments[id]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if claim.TransactionID != nil {
		p.TransactionID = claim.TransactionID
	}
	p.Description = claim.Description
	p.ProcessedBy = claim.ProcessedBy
	processed := claim.ProcessedAt
	p.ProcessedAt = &processed
	p.UpdatedAt = claim.ProcessedAt
	t.st.payments[id] = p
	return true, nil
}

func (t *tx) ListPayments(q billing.PaymentQuery) ([]models.Payment, int64, error) {
	if err := t.check("ListPayments", false); err != nil {
		return nil, 0, err
	}
	var all []models.Payment
	for _, p := range t.st.payments {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.CustomerID != "" && p.CustomerID != q.CustomerID {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		return t.newer(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})

	total := int64(len(all))
	if q.Offset >= len(all) {
		return []models.Payment{}, total, nil
	}
	end := len(all)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	page := all[q.Offset:end]
	for i := range page {
		t.enrich(&page[i])
	}
	return page, total, nil
}

func (t *tx) ListStalePayments(now time.Time, limit int) ([]models.Payment, error) {
	if err := t.check("ListStalePayments", false); err != nil {
		return nil, err
	}
	var out []models.Payment
	for _, p := range t.st.payments {
		if p.Status == models.PaymentStatusPending && !p.ExpiresAt.After(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *tx) CreateNotification(n *models.Notification) error {
	if err := t.check("CreateNotification", true); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	t.st.notifications = append(t.st.notifications, *n)
	return nil
}

func (t *tx) ListNotifications(recipientID string, offset, limit int) ([]models.Notification, int64, error) {
	if err := t.check("ListNotifications", false); err != nil {
		return nil, 0, err
	}
	var all []models.Notification
	for i := len(t.st.notifications) - 1; i >= 0; i-- {
		if n := t.st.notifications[i]; n.RecipientID == recipientID {
			all = append(all, n)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Notification{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (t *tx) MarkNotificationRead(recipientID, id string) (bool, error) {
	if err := t.check("MarkNotificationRead", true); err != nil {
		return false, err
	}
	for i := range t.st.notifications {
		n := &t.st.notifications[i]
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

// enrich attaches the relations the gorm store preloads.
func (t *tx) enrich(p *models.Payment) {
	if c, ok := t.st.customers[p.CustomerID]; ok {
		p.Customer = &c
	}
	if p.SubscriptionID == nil {
		return
	}
	sub, ok := t.st.subscriptions[*p.SubscriptionID]
	if !ok {
		return
	}
	if plan, ok := t.st.plans[sub.PlanID]; ok {
		sub.Plan = &plan
	}
	p.Subscription = &sub
}

// newer orders by creation time, then insertion order.
func (t *tx) newer(aAt time.Time, aID string, bAt time.Time, bID string) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return t.st.order[aID] > t.st.order[bID]
}

var _ billing.Store = (*Store)(nil)
