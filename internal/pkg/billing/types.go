package billing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/entitlements"
)

// BankTransferInstructions are echoed from PaymentSettings so the customer
// can wire the amount.
type BankTransferInstructions struct {
	BankName      string `json:"bank_name"`
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number,omitempty"`
	IBAN          string `json:"iban"`
	SWIFT         string `json:"swift,omitempty"`
	TimeoutHours  int    `json:"timeout_hours"`
}

// PlanChangeResult is returned by RequestPlanChange. Activated is true for
// free plans, which take effect without a payment.
type PlanChangeResult struct {
	Activated      bool                      `json:"activated"`
	PlanID         string                    `json:"plan_id"`
	SubscriptionID string                    `json:"subscription_id"`
	PaymentID      string                    `json:"payment_id,omitempty"`
	Amount         decimal.Decimal           `json:"amount"`
	Currency       string                    `json:"currency"`
	ExpiresAt      *time.Time                `json:"expires_at,omitempty"`
	Instructions   *BankTransferInstructions `json:"payment_instructions,omitempty"`
}

// AdminDecision is the input of ApprovePayment and RejectPayment.
type AdminDecision struct {
	PaymentID     string
	AdminID       string
	TransactionID string
	Notes         string
}

// Entitlements is the read model of what a customer may access right now.
type Entitlements struct {
	Customer            *models.Customer      `json:"customer"`
	CurrentPlan         *models.Plan          `json:"current_plan"`
	Subscription        *models.Subscription  `json:"subscription"`
	PendingSubscription *models.Subscription  `json:"pending_subscription"`
	AvailablePlans      []models.Plan         `json:"available_plans"`
	Source              string                `json:"source"`
	Snapshot            entitlements.Snapshot `json:"entitlements"`
}

func (e *Entitlements) Allows(f entitlements.Feature) bool {
	return e.Snapshot.Allows(f)
}

func (e *Entitlements) WithinLimit(l entitlements.Limit, current int) bool {
	return e.Snapshot.WithinLimit(l, current)
}

// PaymentFilter selects a page of the payment ledger. Page starts at 1.
type PaymentFilter struct {
	Status     string
	CustomerID string
	Page       int
	Limit      int
}

const MaxPageLimit = 100

// MaxPage bounds page numbers so the row offset cannot overflow.
const MaxPage = math.MaxInt / MaxPageLimit

// CustomerRef is the customer projection of a ledger row.
type CustomerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PlanRef is the plan projection of a ledger row.
type PlanRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SubscriptionRef is the subscription projection of a ledger row.
type SubscriptionRef struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Plan   *PlanRef `json:"plan,omitempty"`
}

// PaymentView is one enriched ledger row.
type PaymentView struct {
	ID            string           `json:"id"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	Status        string           `json:"status"`
	PaymentMethod string           `json:"payment_method"`
	TransactionID *string          `json:"transaction_id,omitempty"`
	Description   string           `json:"description"`
	ProcessedBy   *string          `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	ExpiresAt     time.Time        `json:"expires_at"`
	CreatedAt     time.Time        `json:"created_at"`
	Customer      *CustomerRef     `json:"customer,omitempty"`
	Subscription  *SubscriptionRef `json:"subscription,omitempty"`
}

// PaymentPage is a page of the ledger.
type PaymentPage struct {
	Payments   []PaymentView `json:"payments"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// NotificationPage is a page of a customer's notifications.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// SweepResult summarises one reaper pass.
type SweepResult struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func newPaymentView(p *models.Payment) PaymentView {
	v := PaymentView{
		ID:            p.ID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Description:   p.Description,
		ProcessedBy:   p.ProcessedBy,
		ProcessedAt:   p.ProcessedAt,
		ExpiresAt:     p.ExpiresAt,
		CreatedAt:     p.CreatedAt,
	}
	if p.Customer != nil {
		v.Customer = &CustomerRef{ID: p.Customer.ID, Name: p.Customer.Name, Email: p.Customer.Email}
	}
	if p.Subscription != nil {
		v.Subscription = &SubscriptionRef{ID: p.Subscription.ID, Status: p.Subscription.Status}
		if p.Subscription.Plan != nil {
			pl := p.Subscription.Plan
			v.Subscription.Plan = &PlanRef{ID: pl.ID, Name: pl.Name, Price: pl.Price}
		}
	}
	return v
}
