package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity does not exist or is inactive.
	ErrNotFound = errors.New("not found")

	// ErrPolicyViolation is returned when a business rule forbids the operation.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrConcurrencyConflict is returned when a payment was claimed by someone else
	// between the read and the conditional update.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrPersistence is returned when the store fails.
	ErrPersistence = errors.New("persistence failure")
)

const (
	ReasonAlreadyOnPlan         = "already on plan"
	ReasonDowngradeUnsupported  = "downgrade unsupported"
	ReasonAlreadyProcessed      = "already processed"
	ReasonPaymentAlreadyPending = "payment already pending"
	ReasonNoDefaultFreePlan     = "no default free plan"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type PolicyViolation struct {
	Reason string
}

func (e *PolicyViolation) Error() string {
	return "policy violation: " + e.Reason
}

func (e *PolicyViolation) Unwrap() error { return ErrPolicyViolation }

// ConcurrencyConflict also matches ErrPolicyViolation with reason "already
// processed", since the losing caller sees a payment that left PENDING.
type ConcurrencyConflict struct {
	PaymentID string
}

func (e *ConcurrencyConflict) Error() string {
	return fmt.Sprintf("payment %q was processed concurrently", e.PaymentID)
}

func (e *ConcurrencyConflict) Unwrap() []error {
	return []error{ErrConcurrencyConflict, &PolicyViolation{Reason: ReasonAlreadyProcessed}}
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Reason returns the policy reason carried by err, or "".
func Reason(err error) string {
	var pv *PolicyViolation
	if errors.As(err, &pv) {
		return pv.Reason
	}
	return ""
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func policyErr(reason string) error {
	return &PolicyViolation{Reason: reason}
}

// wrapStore tags untyped store errors as persistence failures.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		pv *PolicyViolation
		cc *ConcurrencyConflict
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &pv),
		errors.As(err, &cc), errors.As(err, &pe):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
