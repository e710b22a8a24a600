package billing

import (
	"context"
	"time"

	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceStatusCounts is the organization-wide breakdown of invoices per
// status. It is computed independently of any list filter so dashboard
// numbers always reflect the whole organization.
type InvoiceStatusCounts map[InvoiceStatus]int64

// Total sums the per-status counts
func (c InvoiceStatusCounts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// QuoteStatusCounts is the organization-wide breakdown of quotes per status
type QuoteStatusCounts map[QuoteStatus]int64

// Total sums the per-status counts
func (c QuoteStatusCounts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// InvoiceRepository defines the interface for invoice persistence.
// Every method above the catalog level takes the organization ID so that
// cross-tenant access is impossible by construction.
type InvoiceRepository interface {
	// FindByIDForOrganization finds an invoice with its items and payments
	FindByIDForOrganization(ctx context.Context, organizationID, id uuid.UUID) (*Invoice, error)

	// FindAllForOrganization finds invoices with filtering, searching across
	// the reference and the customer's email, names, business name and tax id
	FindAllForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// CountForOrganization counts invoices matching the filter
	CountForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus returns the org-wide per-status breakdown in one
	// consistent snapshot
	CountByStatus(ctx context.Context, organizationID uuid.UUID) (InvoiceStatusCounts, error)

	// Save persists the invoice and its items (and any new payments)
	// atomically
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock persists with an optimistic version check so concurrent
	// guard-then-mutate sequences on the same invoice cannot interleave
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// DeleteForOrganization hard-deletes the invoice and cascades to items
	DeleteForOrganization(ctx context.Context, organizationID, id uuid.UUID) error

	// MarkOverdue bulk-transitions every invoice with a due date strictly
	// before now and status in {PENDING, SENT} to LATE. Returns the number
	// of rows changed; re-running is a no-op.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)

	// ExistsByReference checks whether a reference is taken within the
	// organization
	ExistsByReference(ctx context.Context, organizationID uuid.UUID, reference string) (bool, error)

	// GenerateReference produces a unique reference for the organization,
	// retrying on suffix collisions
	GenerateReference(ctx context.Context, organizationID uuid.UUID) (string, error)
}

// QuoteRepository defines the interface for quote persistence
type QuoteRepository interface {
	// FindByIDForOrganization finds a quote with its items
	FindByIDForOrganization(ctx context.Context, organizationID, id uuid.UUID) (*Quote, error)

	// FindAllForOrganization finds quotes with filtering, searching across
	// the reference and the customer's email, names, business name and tax id
	FindAllForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Quote, error)

	// CountForOrganization counts quotes matching the filter
	CountForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus returns the org-wide per-status breakdown in one
	// consistent snapshot
	CountByStatus(ctx context.Context, organizationID uuid.UUID) (QuoteStatusCounts, error)

	// Save persists the quote and its items atomically
	Save(ctx context.Context, quote *Quote) error

	// SaveWithLock persists with an optimistic version check
	SaveWithLock(ctx context.Context, quote *Quote) error

	// DeleteForOrganization hard-deletes the quote and cascades to items
	DeleteForOrganization(ctx context.Context, organizationID, id uuid.UUID) error

	// MarkExpired bulk-transitions every quote with a validity date strictly
	// before now and status in {DRAFT, SENT} to EXPIRED. Returns the number
	// of rows changed; re-running is a no-op.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)

	// ExistsByReference checks whether a reference is taken within the
	// organization
	ExistsByReference(ctx context.Context, organizationID uuid.UUID, reference string) (bool, error)

	// GenerateReference produces a unique reference for the organization,
	// retrying on suffix collisions
	GenerateReference(ctx context.Context, organizationID uuid.UUID) (string, error)
}
