package billing

import (
	"context"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/catalog"
)

// TransactionalRepositories exposes the repositories taking part in one
// unit of work. Every repository returned here is bound to the same
// database transaction.
type TransactionalRepositories interface {
	InvoiceRepo() billing.InvoiceRepository
	QuoteRepo() billing.QuoteRepository
	ProductRepo() catalog.ProductRepository
}

// TransactionScope runs a unit of work atomically. Execute commits when fn
// returns nil and rolls every write of the unit back otherwise, including
// writes made through the resolver's product promotion.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope hands the configured repositories to the unit of
// work without opening a transaction. Tests use it to run services against
// plain mocks.
type NoOpTransactionScope struct {
	invoiceRepo billing.InvoiceRepository
	quoteRepo   billing.QuoteRepository
	productRepo catalog.ProductRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	quoteRepo billing.QuoteRepository,
	productRepo catalog.ProductRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		quoteRepo:   quoteRepo,
		productRepo: productRepo,
	}
}

// Execute runs fn directly against the configured repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the configured invoice repository
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// QuoteRepo returns the configured quote repository
func (s *NoOpTransactionScope) QuoteRepo() billing.QuoteRepository {
	return s.quoteRepo
}

// ProductRepo returns the configured product repository
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
