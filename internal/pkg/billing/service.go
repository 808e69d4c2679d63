package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
)

const deliveryTimeout = 10 * time.Second

// Service runs the billing state machine: plan change requests, admin
// decisions on payments and expiry of stale rows.
type Service struct {
	store     Store
	deliverer notify.Deliverer
	metrics   Metrics
	now       func() time.Time
	newID     func() string

	mu            sync.RWMutex
	settings      models.PaymentSettings
	settingsStore SettingsStore
}

type Option func(*Service)

// WithDeliverer sets the channel used after commit. Defaults to a no-op.
func WithDeliverer(d notify.Deliverer) Option {
	return func(s *Service) {
		if d != nil {
			s.deliverer = d
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService creates a billing service from an injected store and the
// bank-transfer settings.
func NewService(store Store, settings models.PaymentSettings, opts ...Option) *Service {
	if settings.TimeoutHours <= 0 {
		settings.TimeoutHours = models.DefaultPaymentTimeoutHours
	}
	if settings.Currency == "" {
		settings.Currency = models.DefaultCurrency
	}
	s := &Service{
		store:     store,
		settings:  settings,
		deliverer: notify.NoopDeliverer{},
		metrics:   &NoopMetrics{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the bank-transfer settings used for new payments.
func (s *Service) Settings() models.PaymentSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// transact runs fn in one transaction and delivers the emitted notifications
// once it committed.
func (s *Service) transact(ctx context.Context, op string, fn func(tx Tx, emitter *notify.Emitter) error) error {
	start := time.Now()
	emitter := notify.NewEmitter()

	err := s.store.Transaction(ctx, func(tx Tx) error {
		emitter.Reset()
		return fn(tx, emitter)
	})
	err = wrapStore(op, err)
	s.metrics.RecordOperation(op, time.Since(start), outcomeOf(err))
	if err != nil {
		return err
	}

	s.deliver(ctx, emitter)
	return nil
}

// read runs fn in a read-only transaction.
func (s *Service) read(ctx context.Context, op string, fn func(tx Tx) error) error {
	start := time.Now()
	err := wrapStore(op, s.store.ReadOnly(ctx, fn))
	s.metrics.RecordOperation(op, time.Since(start), outcomeOf(err))
	return err
}

func (s *Service) deliver(ctx context.Context, emitter *notify.Emitter) {
	if len(emitter.Messages()) == 0 {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	_, errs := emitter.Flush(dctx, s.deliverer)
	for _, err := range errs {
		s.metrics.RecordDeliveryFailure()
		log.Warnf("[Billing] notification delivery failed: %v", err)
	}
}

// newTransactionRef builds a reference for approvals without a bank
// transaction id.
func (s *Service) newTransactionRef(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(s.newID(), "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("TRX-%s-%s", now.Format("20060102"), id)
}

func requireID(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", validationErr(field, "is required")
	}
	return v, nil
}

func isConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

func isRejected(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrPolicyViolation)
}
