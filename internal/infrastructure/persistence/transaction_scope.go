package persistence

import (
	"context"

	"github.com/dealer/backend/internal/application/transaction"
	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/dealer"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/domain/vehicle"
	"gorm.io/gorm"
)

// CounterFactory builds the document counter used inside a transaction
type CounterFactory func(tx *gorm.DB) document.Counter

// GormTransactionScope implements transaction.Scope using GORM transactions.
// Every repository handed to the callback shares one *gorm.DB transaction.
type GormTransactionScope struct {
	db         *gorm.DB
	newCounter CounterFactory
}

// ScopeOption configures a GormTransactionScope
type ScopeOption func(*GormTransactionScope)

// WithCounterFactory replaces the table-backed document counter
func WithCounterFactory(f CounterFactory) ScopeOption {
	return func(s *GormTransactionScope) {
		if f != nil {
			s.newCounter = f
		}
	}
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{
		db: db,
		newCounter: func(tx *gorm.DB) document.Counter {
			return NewGormDocumentCounter(tx)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos transaction.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx, counter: s.newCounter(tx)})
	})
}

// gormRepositories provides access to all repositories within a transaction.
type gormRepositories struct {
	tx      *gorm.DB
	counter document.Counter
}

func (r *gormRepositories) Deals() deal.Repository { return NewGormDealRepository(r.tx) }

func (r *gormRepositories) Vehicles() vehicle.Repository { return NewGormVehicleRepository(r.tx) }

func (r *gormRepositories) Issues() vehicle.IssueRepository { return NewGormIssueRepository(r.tx) }

func (r *gormRepositories) PrepTasks() vehicle.PrepTaskRepository {
	return NewGormPrepTaskRepository(r.tx)
}

func (r *gormRepositories) Documents() document.Repository { return NewGormDocumentRepository(r.tx) }

func (r *gormRepositories) Counter() document.Counter { return r.counter }

func (r *gormRepositories) Contacts() contact.Repository { return NewGormContactRepository(r.tx) }

func (r *gormRepositories) Appraisals() appraisal.Repository {
	return NewGormAppraisalRepository(r.tx)
}

func (r *gormRepositories) Dealers() dealer.Repository { return NewGormDealerRepository(r.tx) }

var (
	_ transaction.Scope        = (*GormTransactionScope)(nil)
	_ transaction.Repositories = (*gormRepositories)(nil)
)
