package billing

import "time"

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics defines the interface for tracking billing operations.
type Metrics interface {
	// RecordOperation records the duration and outcome of a service operation
	// (e.g. "approve_payment").
	RecordOperation(op string, duration time.Duration, outcome string)

	// RecordPaymentTransition records a payment leaving PENDING.
	RecordPaymentTransition(to string)

	// RecordSweep records how many rows one reaper pass expired.
	RecordSweep(kind string, expired int)

	// RecordDeliveryFailure records a notification that could not be delivered.
	RecordDeliveryFailure()
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordOperation(op string, duration time.Duration, outcome string) {}
func (n *NoopMetrics) RecordPaymentTransition(to string) {}
func (n *NoopMetrics) RecordSweep(kind string, expired int) {}
func (n *NoopMetrics) RecordDeliveryFailure() {}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case isConflict(err):
		return OutcomeConflict
	case isRejected(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
