package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// referenceAttempts caps the number of random suffixes tried before
// reference generation gives up
const referenceAttempts = 25

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForOrganization finds an invoice by ID within an organization,
// loading its items and payments together with the customer, organization
// and issuing user
func (r *GormInvoiceRepository) FindByIDForOrganization(ctx context.Context, organizationID, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Preload("Customer").
		Preload("Organization").
		Preload("Creator").
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAllForOrganization finds all invoices for an organization with filtering
func (r *GormInvoiceRepository) FindAllForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&billing.Invoice{}).
			Where("invoices.organization_id = ?", organizationID),
		filter,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// CountForOrganization counts invoices for an organization with optional filters
func (r *GormInvoiceRepository) CountForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&billing.Invoice{}).
			Where("invoices.organization_id = ?", organizationID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns the organization-wide invoice count per status
func (r *GormInvoiceRepository) CountByStatus(ctx context.Context, organizationID uuid.UUID) (billing.InvoiceStatusCounts, error) {
	var rows []struct {
		Status billing.InvoiceStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Select("status, COUNT(*) AS count").
		Where("organization_id = ?", organizationID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(billing.InvoiceStatusCounts, len(billing.AllInvoiceStatuses()))
	for _, status := range billing.AllInvoiceStatuses() {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Save creates or updates an invoice together with its items and payments
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(invoice).Error; err != nil {
			return err
		}
		if err := r.syncItems(tx, invoice); err != nil {
			return err
		}
		return r.syncPayments(tx, invoice)
	})
}

// SaveWithLock saves an invoice with an optimistic version check
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		versionScan := tx.Model(&billing.Invoice{}).
			Where("organization_id = ? AND id = ?", invoice.OrganizationID, invoice.ID).
			Select("version").
			Scan(&currentVersion)
		if versionScan.Error != nil {
			return versionScan.Error
		}
		if versionScan.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if currentVersion != invoice.Version {
			return shared.ErrConcurrencyConflict
		}

		invoice.Version++
		invoice.Touch()

		result := tx.Model(&billing.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, currentVersion).
			Updates(map[string]interface{}{
				"customer_id":     invoice.CustomerID,
				"issue_date":      invoice.IssueDate,
				"due_date":        invoice.DueDate,
				"amount_excl_tax": invoice.AmountExclTax,
				"tax_amount":      invoice.TaxAmount,
				"amount_incl_tax": invoice.AmountInclTax,
				"status":          invoice.Status,
				"conditions":      invoice.Conditions,
				"notes":           invoice.Notes,
				"sent_at":         invoice.SentAt,
				"paid_at":         invoice.PaidAt,
				"cancelled_at":    invoice.CancelledAt,
				"version":         invoice.Version,
				"updated_at":      invoice.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := r.syncItems(tx, invoice); err != nil {
			return err
		}
		return r.syncPayments(tx, invoice)
	})
}

// syncItems replaces the stored line items with the aggregate's current set
func (r *GormInvoiceRepository) syncItems(tx *gorm.DB, invoice *billing.Invoice) error {
	if invoice.ID == uuid.Nil {
		return nil
	}

	currentItemIDs := make([]uuid.UUID, len(invoice.Items))
	for i, item := range invoice.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("invoice_id = ? AND id NOT IN ?", invoice.ID, currentItemIDs).
			Delete(&billing.InvoiceItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("invoice_id = ?", invoice.ID).
			Delete(&billing.InvoiceItem{}).Error; err != nil {
			return err
		}
	}

	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
		if err := tx.Save(&invoice.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// syncPayments upserts the aggregate's payments. Payments are append-only,
// so nothing is ever deleted here.
func (r *GormInvoiceRepository) syncPayments(tx *gorm.DB, invoice *billing.Invoice) error {
	for i := range invoice.Payments {
		invoice.Payments[i].InvoiceID = invoice.ID
		if err := tx.Save(&invoice.Payments[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteForOrganization deletes an invoice and its items within an organization
func (r *GormInvoiceRepository) DeleteForOrganization(ctx context.Context, organizationID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice billing.Invoice
		if err := tx.Where("organization_id = ? AND id = ?", organizationID, id).
			First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Where("invoice_id = ?", id).Delete(&billing.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&billing.InvoiceItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&billing.Invoice{}, "organization_id = ? AND id = ?", organizationID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// MarkOverdue flips every open invoice whose due date has passed to LATE.
// Runs as a single UPDATE across all organizations so re-running is cheap.
func (r *GormInvoiceRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("status IN ? AND due_date < ?",
			[]billing.InvoiceStatus{billing.InvoiceStatusPending, billing.InvoiceStatusSent}, now).
		Updates(map[string]interface{}{
			"status":     billing.InvoiceStatusLate,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExistsByReference checks if a reference exists for an organization
func (r *GormInvoiceRepository) ExistsByReference(ctx context.Context, organizationID uuid.UUID, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("organization_id = ? AND reference = ?", organizationID, reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateReference generates a unique invoice reference for an organization,
// retrying with a fresh random suffix on collision
func (r *GormInvoiceRepository) GenerateReference(ctx context.Context, organizationID uuid.UUID) (string, error) {
	now := time.Now()
	for i := 0; i < referenceAttempts; i++ {
		reference := billing.RandomReference(billing.DocumentKindInvoice, organizationID, now)
		exists, err := r.ExistsByReference(ctx, organizationID, reference)
		if err != nil {
			return "", err
		}
		if !exists {
			return reference, nil
		}
	}
	return "", shared.NewDomainError("REFERENCE_EXHAUSTED", "Could not generate a unique invoice reference")
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "issue_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order("invoices." + orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.
			Joins("LEFT JOIN customers ON customers.id = invoices.customer_id").
			Where(`invoices.reference ILIKE ? OR customers.email ILIKE ? OR customers.first_name ILIKE ?
				OR customers.last_name ILIKE ? OR customers.business_name ILIKE ? OR customers.tax_id ILIKE ?`,
				pattern, pattern, pattern, pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("invoices.customer_id = ?", value)
		case "status":
			query = query.Where("invoices.status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("invoices.status IN ?", statuses)
			}
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("invoices.issue_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("invoices.issue_date <= ?", t)
			}
		case "min_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("invoices.amount_incl_tax >= ?", d)
			}
		case "max_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("invoices.amount_incl_tax <= ?", d)
			}
		}
	}

	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
