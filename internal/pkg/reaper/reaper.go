package reaper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/cache"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

const lockName = "billing-reaper"

// Config controls the sweep schedule.
type Config struct {
	Enabled  bool
	Schedule string
	Batch    int
	LockTTL  time.Duration
}

// ConfigFromEnv reads BILLING_REAPER_* variables.
func ConfigFromEnv() Config {
	return Config{
		Enabled:  env.GetEnvBool("BILLING_REAPER_ENABLED", true),
		Schedule: env.GetEnv("BILLING_REAPER_SCHEDULE", "@every 5m"),
		Batch:    env.GetEnvInt("BILLING_REAPER_BATCH", billing.DefaultSweepBatch),
		LockTTL:  env.GetEnvDuration("BILLING_REAPER_LOCK_TTL", 4*time.Minute),
	}
}

// Sweeper is implemented by billing.Service.
type Sweeper interface {
	ExpireStalePayments(ctx context.Context, now time.Time, batch int) (billing.SweepResult, error)
	ExpireLapsedSubscriptions(ctx context.Context, now time.Time, batch int) (billing.SweepResult, error)
}

// Locker provides a cross-instance mutex. ok is false when another instance
// holds it.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLocker adapts cache.Locker.
type RedisLocker struct {
	Locker *cache.Locker
}

func (r RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	lk, err := r.Locker.TryLock(ctx, name, ttl)
	if err != nil || lk == nil {
		return nil, false, err
	}
	return func() {
		if err := lk.Release(context.Background()); err != nil {
			log.Warnf("[Reaper] Failed to release lock: %v", err)
		}
	}, true, nil
}

// Report summarises one RunOnce.
type Report struct {
	StartedAt     time.Time           `json:"started_at"`
	Payments      billing.SweepResult `json:"payments"`
	Subscriptions billing.SweepResult `json:"subscriptions"`
	LockHeld      bool                `json:"lock_held_elsewhere"`
}

// Manager schedules the billing sweeps.
type Manager struct {
	cfg     Config
	sweeper Sweeper
	locker  Locker
	now     func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewManager creates a reaper. locker may be nil, in which case every
// instance sweeps; the conditional claims keep that safe.
func NewManager(cfg Config, sweeper Sweeper, locker Locker) *Manager {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.Batch <= 0 {
		cfg.Batch = billing.DefaultSweepBatch
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 4 * time.Minute
	}
	return &Manager{
		cfg:     cfg,
		sweeper: sweeper,
		locker:  locker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the sweep with cron.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(m.cfg.Schedule, func() {
		if _, err := m.RunOnce(context.Background()); err != nil {
			log.Errorf("[Reaper] Sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", m.cfg.Schedule, err)
	}
	c.Start()

	m.cron = c
	m.running = true
	log.Infof("[Reaper] Started (schedule: %s, batch: %d)", m.cfg.Schedule, m.cfg.Batch)
	return nil
}

// Stop waits for a running sweep to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
	m.running = false
	log.Info("[Reaper] Stopped")
}

// IsRunning returns whether the schedule is active
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunOnce performs one sweep of stale payments and lapsed subscriptions.
func (m *Manager) RunOnce(ctx context.Context) (Report, error) {
	report := Report{StartedAt: m.now()}

	if m.locker != nil {
		release, ok, err := m.locker.Acquire(ctx, lockName, m.cfg.LockTTL)
		switch {
		case err != nil:
			log.Warnf("[Reaper] Lock unavailable, sweeping without it: %v", err)
		case !ok:
			log.Debug("[Reaper] Another instance is sweeping, skipping")
			report.LockHeld = true
			return report, nil
		default:
			defer release()
		}
	}

	var err error
	report.Payments, err = m.sweeper.ExpireStalePayments(ctx, report.StartedAt, m.cfg.Batch)
	if err != nil {
		return report, fmt.Errorf("expire stale payments: %w", err)
	}
	report.Subscriptions, err = m.sweeper.ExpireLapsedSubscriptions(ctx, report.StartedAt, m.cfg.Batch)
	if err != nil {
		return report, fmt.Errorf("expire lapsed subscriptions: %w", err)
	}
	return report, nil
}
