package billing

import (
	"context"
	"time"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SweeperService runs the periodic status sweeps: invoices past their due
// date become LATE, quotes past their validity date become EXPIRED. Both
// sweeps are single bulk updates whose predicates exclude already-swept
// rows, so re-running them is harmless.
type SweeperService struct {
	invoiceRepo billing.InvoiceRepository
	quoteRepo   billing.QuoteRepository
	logger      *zap.Logger
}

// NewSweeperService creates a new SweeperService
func NewSweeperService(invoiceRepo billing.InvoiceRepository, quoteRepo billing.QuoteRepository, logger *zap.Logger) *SweeperService {
	return &SweeperService{
		invoiceRepo: invoiceRepo,
		quoteRepo:   quoteRepo,
		logger:      logger,
	}
}

// SweepResult reports how many rows each sweep changed
type SweepResult struct {
	InvoicesMarkedLate  int64 `json:"invoices_marked_late"`
	QuotesMarkedExpired int64 `json:"quotes_marked_expired"`
}

// Run executes both sweeps. A failure in one sweep does not stop the other;
// the first error is returned after both ran.
func (s *SweeperService) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	var firstErr error

	late, err := s.MarkOverdueInvoices(ctx, now)
	if err != nil {
		firstErr = err
	}
	result.InvoicesMarkedLate = late

	expired, err := s.MarkExpiredQuotes(ctx, now)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	result.QuotesMarkedExpired = expired

	return result, firstErr
}

// MarkOverdueInvoices transitions every PENDING or SENT invoice with a due
// date strictly before now to LATE
func (s *SweeperService) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.invoiceRepo.MarkOverdue(ctx, now)
	if err != nil {
		s.logger.Error("overdue invoice sweep failed", zap.Error(err))
		return 0, shared.ErrInternal
	}
	if count > 0 {
		s.logger.Info("marked overdue invoices late", zap.Int64("count", count))
	}
	return count, nil
}

// MarkExpiredQuotes transitions every DRAFT or SENT quote with a validity
// date strictly before now to EXPIRED
func (s *SweeperService) MarkExpiredQuotes(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.quoteRepo.MarkExpired(ctx, now)
	if err != nil {
		s.logger.Error("expired quote sweep failed", zap.Error(err))
		return 0, shared.ErrInternal
	}
	if count > 0 {
		s.logger.Info("marked expired quotes", zap.Int64("count", count))
	}
	return count, nil
}
