package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	s := New()
	s.AddCustomer(models.Customer{ID: "c1", PlanID: "free", IsActive: true})

	boom := errors.New("boom")
	err := s.Transaction(context.Background(), func(tx billing.Tx) error {
		require.NoError(t, tx.SetCustomerPlan("c1", "pro"))
		require.NoError(t, tx.CreateNotification(&models.Notification{ID: "n1", RecipientID: "c1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	c, _ := s.Customer("c1")
	assert.Equal(t, "free", c.PlanID)
	assert.Empty(t, s.Notifications("c1"))
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	s := New()
	s.AddCustomer(models.Customer{ID: "c1", PlanID: "free"})

	err := s.ReadOnly(context.Background(), func(tx billing.Tx) error {
		return tx.SetCustomerPlan("c1", "pro")
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestClaimPaymentOnlyFromPending(t *testing.T) {
	s := New()
	s.AddPayment(models.Payment{ID: "p1", CustomerID: "c1", Amount: decimal.NewFromInt(10), Status: models.PaymentStatusPending})

	ctx := context.Background()
	now := time.Now()
	var first, second bool
	require.NoError(t, s.Transaction(ctx, func(tx billing.Tx) error {
		var err error
		first, err = tx.ClaimPayment("p1", models.PaymentStatusCompleted, models.PaymentClaim{ProcessedAt: now})
		if err != nil {
			return err
		}
		second, err = tx.ClaimPayment("p1", models.PaymentStatusFailed, models.PaymentClaim{ProcessedAt: now})
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)

	p, _ := s.Payment("p1")
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	require.NotNil(t, p.ProcessedAt)
}

func TestGetMissingRowsReturnNotFound(t *testing.T) {
	s := New()
	err := s.ReadOnly(context.Background(), func(tx billing.Tx) error {
		_, err := tx.GetPayment("nope")
		assert.ErrorIs(t, err, billing.ErrNotFound)
		_, err = tx.DefaultFreePlan()
		assert.ErrorIs(t, err, billing.ErrNotFound)
		sub, err := tx.FindSubscription("c1", models.SubscriptionStatusActive)
		assert.NoError(t, err)
		assert.Nil(t, sub)
		return nil
	})
	require.NoError(t, err)
}

func TestFailOn(t *testing.T) {
	s := New()
	s.FailOn("ListActivePlans", errors.New("offline"))
	err := s.ReadOnly(context.Background(), func(tx billing.Tx) error {
		_, err := tx.ListActivePlans()
		return err
	})
	assert.EqualError(t, err, "offline")

	s.FailOn("ListActivePlans", nil)
	err = s.ReadOnly(context.Background(), func(tx billing.Tx) error {
		_, err := tx.ListActivePlans()
		return err
	})
	assert.NoError(t, err)
}
