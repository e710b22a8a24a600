package billing

import (
	"context"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoiceRepo  billing.InvoiceRepository
	lineResolver *LineResolver
	scope        TransactionScope
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo billing.InvoiceRepository, lineResolver *LineResolver, scope TransactionScope, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		lineResolver: lineResolver,
		scope:        scope,
		logger:       logger,
	}
}

// Create creates a new invoice with resolved lines. Line resolution, the
// reference check and the insert run in one transaction, so a failing save
// also rolls back any catalog products promoted from ad-hoc lines.
func (s *InvoiceService) Create(ctx context.Context, organizationID, userID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := s.lineResolver.withRepository(repos.ProductRepo()).Resolve(ctx, organizationID, req.Lines)
		if err != nil {
			return err
		}

		invoiceRepo := repos.InvoiceRepo()
		reference, err := invoiceRepo.GenerateReference(ctx, organizationID)
		if err != nil {
			return err
		}

		invoice, err = billing.NewInvoice(organizationID, userID, reference, req.CustomerID, req.IssueDate, req.DueDate)
		if err != nil {
			return err
		}
		invoice.Conditions = req.Conditions
		invoice.Notes = req.Notes

		if err := invoice.ReplaceLines(lines); err != nil {
			return err
		}

		return invoiceRepo.Save(ctx, invoice)
	})
	if err != nil {
		return nil, serviceError(s.logger, "create invoice", err)
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, organizationID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrganization(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, serviceError(s.logger, "get invoice", err)
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// List retrieves one invoice page together with the organization-wide
// status breakdown. Page, total and breakdown are read in the same
// transaction so they describe one consistent snapshot.
func (s *InvoiceService) List(ctx context.Context, organizationID uuid.UUID, filter InvoiceListFilter) (*InvoiceListResult, error) {
	domainFilter := buildInvoiceFilter(filter)

	var (
		invoices []billing.Invoice
		total    int64
		counts   billing.InvoiceStatusCounts
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoiceRepo := repos.InvoiceRepo()
		var err error
		if invoices, err = invoiceRepo.FindAllForOrganization(ctx, organizationID, domainFilter); err != nil {
			return err
		}
		if total, err = invoiceRepo.CountForOrganization(ctx, organizationID, domainFilter); err != nil {
			return err
		}
		counts, err = invoiceRepo.CountByStatus(ctx, organizationID)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "list invoices", err)
	}

	page := shared.NewPaginated(ToInvoiceListItemResponses(invoices), total, domainFilter.Page, domainFilter.PageSize)
	return &InvoiceListResult{
		Items:      page.Items,
		Summary:    ToInvoiceStatusSummary(counts),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// StatusSummary returns the organization-wide count of invoices per status,
// independent of any list filter
func (s *InvoiceService) StatusSummary(ctx context.Context, organizationID uuid.UUID) (*InvoiceStatusSummary, error) {
	counts, err := s.invoiceRepo.CountByStatus(ctx, organizationID)
	if err != nil {
		return nil, serviceError(s.logger, "invoice status summary", err)
	}
	summary := ToInvoiceStatusSummary(counts)
	return &summary, nil
}

// Update applies a partial update to an invoice. The lines, if present,
// replace the full line set; resolution and the locked save share one
// transaction. The status guard rejects paid and cancelled invoices.
func (s *InvoiceService) Update(ctx context.Context, organizationID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoiceRepo := repos.InvoiceRepo()
		var err error
		invoice, err = invoiceRepo.FindByIDForOrganization(ctx, organizationID, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.ApplyPatch(billing.InvoicePatch{
			CustomerID: req.CustomerID,
			IssueDate:  req.IssueDate,
			DueDate:    req.DueDate,
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
			if err := invoice.ReplaceLines(lines); err != nil {
				return err
			}
		}

		return invoiceRepo.SaveWithLock(ctx, invoice)
	})
	if err != nil {
		return nil, serviceError(s.logger, "update invoice", err)
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// Cancel cancels an invoice
func (s *InvoiceService) Cancel(ctx context.Context, organizationID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrganization(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, serviceError(s.logger, "cancel invoice", err)
	}

	if err := invoice.Cancel(); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, serviceError(s.logger, "cancel invoice", err)
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// Delete deletes an invoice. Paid invoices are protected by the delete
// guard.
func (s *InvoiceService) Delete(ctx context.Context, organizationID, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindByIDForOrganization(ctx, organizationID, invoiceID)
	if err != nil {
		return serviceError(s.logger, "delete invoice", err)
	}

	if err := invoice.CanDelete(); err != nil {
		return err
	}

	return serviceError(s.logger, "delete invoice", s.invoiceRepo.DeleteForOrganization(ctx, organizationID, invoiceID))
}

// buildInvoiceFilter maps the request filter onto the domain filter
func buildInvoiceFilter(filter InvoiceListFilter) shared.Filter {
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
