package billing

import (
	"context"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteService handles quote business operations
type QuoteService struct {
	quoteRepo    billing.QuoteRepository
	lineResolver *LineResolver
	scope        TransactionScope
	logger       *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(quoteRepo billing.QuoteRepository, lineResolver *LineResolver, scope TransactionScope, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		quoteRepo:    quoteRepo,
		lineResolver: lineResolver,
		scope:        scope,
		logger:       logger,
	}
}

// Create creates a new quote with resolved lines. Like invoice creation,
// the whole operation runs in one transaction so promoted catalog products
// never outlive a failed save.
func (s *QuoteService) Create(ctx context.Context, organizationID, userID uuid.UUID, req CreateQuoteRequest) (*QuoteResponse, error) {
	var quote *billing.Quote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := s.lineResolver.withRepository(repos.ProductRepo()).Resolve(ctx, organizationID, req.Lines)
		if err != nil {
			return err
		}

		quoteRepo := repos.QuoteRepo()
		reference, err := quoteRepo.GenerateReference(ctx, organizationID)
		if err != nil {
			return err
		}

		quote, err = billing.NewQuote(organizationID, userID, reference, req.CustomerID, req.IssueDate, req.ValidUntil)
		if err != nil {
			return err
		}
		quote.Conditions = req.Conditions
		quote.Notes = req.Notes

		if err := quote.ReplaceLines(lines); err != nil {
			return err
		}

		return quoteRepo.Save(ctx, quote)
	})
	if err != nil {
		return nil, serviceError(s.logger, "create quote", err)
	}

	response := ToQuoteResponse(quote)
	return &response, nil
}

// GetByID retrieves a quote by ID
func (s *QuoteService) GetByID(ctx context.Context, organizationID, quoteID uuid.UUID) (*QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByIDForOrganization(ctx, organizationID, quoteID)
	if err != nil {
		return nil, serviceError(s.logger, "get quote", err)
	}
	response := ToQuoteResponse(quote)
	return &response, nil
}

// List retrieves one quote page together with the organization-wide status
// breakdown, read in the same transaction
func (s *QuoteService) List(ctx context.Context, organizationID uuid.UUID, filter QuoteListFilter) (*QuoteListResult, error) {
	domainFilter := buildQuoteFilter(filter)

	var (
		quotes []billing.Quote
		total  int64
		counts billing.QuoteStatusCounts
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		quoteRepo := repos.QuoteRepo()
		var err error
		if quotes, err = quoteRepo.FindAllForOrganization(ctx, organizationID, domainFilter); err != nil {
			return err
		}
		if total, err = quoteRepo.CountForOrganization(ctx, organizationID, domainFilter); err != nil {
			return err
		}
		counts, err = quoteRepo.CountByStatus(ctx, organizationID)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "list quotes", err)
	}

	page := shared.NewPaginated(ToQuoteListItemResponses(quotes), total, domainFilter.Page, domainFilter.PageSize)
	return &QuoteListResult{
		Items:      page.Items,
		Summary:    ToQuoteStatusSummary(counts),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// StatusSummary returns the organization-wide count of quotes per status
func (s *QuoteService) StatusSummary(ctx context.Context, organizationID uuid.UUID) (*QuoteStatusSummary, error) {
	counts, err := s.quoteRepo.CountByStatus(ctx, organizationID)
	if err != nil {
		return nil, serviceError(s.logger, "quote status summary", err)
	}
	summary := ToQuoteStatusSummary(counts)
	return &summary, nil
}

// Update applies a partial update to a quote. Line resolution and the
// locked save share one transaction.
func (s *QuoteService) Update(ctx context.Context, organizationID, quoteID uuid.UUID, req UpdateQuoteRequest) (*QuoteResponse, error) {
	var quote *billing.Quote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		quoteRepo := repos.QuoteRepo()
		var err error
		quote, err = quoteRepo.FindByIDForOrganization(ctx, organizationID, quoteID)
		if err != nil {
			return err
		}

		if err := quote.ApplyPatch(billing.QuotePatch{
			CustomerID: req.CustomerID,
			IssueDate:  req.IssueDate,
			ValidUntil: req.ValidUntil,
			Conditions: req.Conditions,
			Notes:      req.Notes,
		}); err != nil {
			return err
		}

		if req.Lines != nil {
			lines, err := s.lineResolver.withRepository(repos.ProductRepo()).Resolve(ctx, organizationID, *req.Lines)
			if err != nil {
				return err
			}
			if err := quote.ReplaceLines(lines); err != nil {
				return err
			}
		}

		return quoteRepo.SaveWithLock(ctx, quote)
	})
	if err != nil {
		return nil, serviceError(s.logger, "update quote", err)
	}

	response := ToQuoteResponse(quote)
	return &response, nil
}

// Accept marks a quote as accepted by the customer
func (s *QuoteService) Accept(ctx context.Context, organizationID, quoteID uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, organizationID, quoteID, "accept quote", (*billing.Quote).Accept)
}

// Reject marks a quote as rejected by the customer
func (s *QuoteService) Reject(ctx context.Context, organizationID, quoteID uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, organizationID, quoteID, "reject quote", (*billing.Quote).Reject)
}

func (s *QuoteService) transition(ctx context.Context, organizationID, quoteID uuid.UUID, operation string, apply func(*billing.Quote) error) (*QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByIDForOrganization(ctx, organizationID, quoteID)
	if err != nil {
		return nil, serviceError(s.logger, operation, err)
	}

	if err := apply(quote); err != nil {
		return nil, err
	}

	if err := s.quoteRepo.SaveWithLock(ctx, quote); err != nil {
		return nil, serviceError(s.logger, operation, err)
	}

	response := ToQuoteResponse(quote)
	return &response, nil
}

// Delete deletes a quote. Accepted quotes are protected by the delete
// guard.
func (s *QuoteService) Delete(ctx context.Context, organizationID, quoteID uuid.UUID) error {
	quote, err := s.quoteRepo.FindByIDForOrganization(ctx, organizationID, quoteID)
	if err != nil {
		return serviceError(s.logger, "delete quote", err)
	}

	if err := quote.CanDelete(); err != nil {
		return err
	}

	return serviceError(s.logger, "delete quote", s.quoteRepo.DeleteForOrganization(ctx, organizationID, quoteID))
}

// buildQuoteFilter maps the request filter onto the domain filter
func buildQuoteFilter(filter QuoteListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search

	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	if filter.MinAmount != nil {
		domainFilter.Filters["min_amount"] = *filter.MinAmount
	}
	if filter.MaxAmount != nil {
		domainFilter.Filters["max_amount"] = *filter.MaxAmount
	}
	return domainFilter
}
