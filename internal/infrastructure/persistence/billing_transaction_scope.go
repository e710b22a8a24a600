package persistence

import (
	"context"

	appbilling "github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormTransactionScope implements the application's TransactionScope on a
// GORM connection. Every repository handed to the unit of work shares the
// transaction opened by Execute.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside one database transaction. A non-nil error from fn
// rolls back every write made through the scoped repositories.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories binds each repository to the transaction
// handle of the enclosing Execute call
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) QuoteRepo() billing.QuoteRepository {
	return NewGormQuoteRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)
