package billing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", &ValidationError{Field: "plan_id", Message: "is required"}, ErrValidation},
		{"not found", &NotFoundError{Entity: "payment", ID: "p1"}, ErrNotFound},
		{"policy", &PolicyViolation{Reason: ReasonDowngradeUnsupported}, ErrPolicyViolation},
		{"conflict", &ConcurrencyConflict{PaymentID: "p1"}, ErrConcurrencyConflict},
		{"conflict is policy", &ConcurrencyConflict{PaymentID: "p1"}, ErrPolicyViolation},
		{"persistence", &PersistenceError{Op: "approve_payment", Err: errors.New("boom")}, ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}

	assert.Equal(t, ReasonAlreadyProcessed, Reason(&ConcurrencyConflict{PaymentID: "p1"}))
	assert.Equal(t, "", Reason(errors.New("plain")))
	assert.Equal(t, "plan_id: is required", (&ValidationError{Field: "plan_id", Message: "is required"}).Error())
}

func TestWrapStore(t *testing.T) {
	nf := &NotFoundError{Entity: "plan", ID: "x"}
	assert.Same(t, nf, wrapStore("op", nf))
	assert.Nil(t, wrapStore("op", nil))

	raw := errors.New("deadlock found")
	wrapped := wrapStore("approve_payment", raw)
	assert.ErrorIs(t, wrapped, ErrPersistence)
	assert.ErrorIs(t, wrapped, raw)
	assert.Equal(t, "approve_payment: deadlock found", wrapped.Error())
}
