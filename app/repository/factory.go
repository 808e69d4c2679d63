package repository

import (
	"context"
	"database/sql"
	"sync"

	"gorm.io/gorm"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

// Factory hands out repositories bound to one database handle and opens
// billing units of work on it.
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns repositories working outside of any transaction
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetSettingRepository returns the setting repository instance
func (f *Factory) GetSettingRepository() SettingRepository {
	return f.GetRepositories().Setting
}

// GetPlanRepository returns the plan repository instance
func (f *Factory) GetPlanRepository() PlanRepository {
	return f.GetRepositories().Plan
}

// Transaction implements billing.Store
func (f *Factory) Transaction(ctx context.Context, fn func(tx billing.Tx) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newUnitOfWork(tx))
	})
}

// ReadOnly implements billing.Store
func (f *Factory) ReadOnly(ctx context.Context, fn func(tx billing.Tx) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newUnitOfWork(tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true})
}

var _ billing.Store = (*Factory)(nil)
