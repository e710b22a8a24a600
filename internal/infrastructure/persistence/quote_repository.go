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

// GormQuoteRepository implements QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByIDForOrganization finds a quote by ID within an organization,
// loading its items together with the customer, organization and issuing
// user
func (r *GormQuoteRepository) FindByIDForOrganization(ctx context.Context, organizationID, id uuid.UUID) (*billing.Quote, error) {
	var quote billing.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Preload("Organization").
		Preload("Creator").
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// FindAllForOrganization finds all quotes for an organization with filtering
func (r *GormQuoteRepository) FindAllForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]billing.Quote, error) {
	var quotes []billing.Quote
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&billing.Quote{}).
			Where("quotes.organization_id = ?", organizationID),
		filter,
	)

	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// CountForOrganization counts quotes for an organization with optional filters
func (r *GormQuoteRepository) CountForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&billing.Quote{}).
			Where("quotes.organization_id = ?", organizationID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns the organization-wide quote count per status
func (r *GormQuoteRepository) CountByStatus(ctx context.Context, organizationID uuid.UUID) (billing.QuoteStatusCounts, error) {
	var rows []struct {
		Status billing.QuoteStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&billing.Quote{}).
		Select("status, COUNT(*) AS count").
		Where("organization_id = ?", organizationID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(billing.QuoteStatusCounts, len(billing.AllQuoteStatuses()))
	for _, status := range billing.AllQuoteStatuses() {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Save creates or updates a quote together with its items
func (r *GormQuoteRepository) Save(ctx context.Context, quote *billing.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(quote).Error; err != nil {
			return err
		}
		return r.syncItems(tx, quote)
	})
}

// SaveWithLock saves a quote with an optimistic version check
func (r *GormQuoteRepository) SaveWithLock(ctx context.Context, quote *billing.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		versionScan := tx.Model(&billing.Quote{}).
			Where("organization_id = ? AND id = ?", quote.OrganizationID, quote.ID).
			Select("version").
			Scan(&currentVersion)
		if versionScan.Error != nil {
			return versionScan.Error
		}
		if versionScan.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if currentVersion != quote.Version {
			return shared.ErrConcurrencyConflict
		}

		quote.Version++
		quote.Touch()

		result := tx.Model(&billing.Quote{}).
			Where("id = ? AND version = ?", quote.ID, currentVersion).
			Updates(map[string]interface{}{
				"customer_id":     quote.CustomerID,
				"issue_date":      quote.IssueDate,
				"valid_until":     quote.ValidUntil,
				"amount_excl_tax": quote.AmountExclTax,
				"tax_amount":      quote.TaxAmount,
				"amount_incl_tax": quote.AmountInclTax,
				"status":          quote.Status,
				"conditions":      quote.Conditions,
				"notes":           quote.Notes,
				"sent_at":         quote.SentAt,
				"accepted_at":     quote.AcceptedAt,
				"rejected_at":     quote.RejectedAt,
				"version":         quote.Version,
				"updated_at":      quote.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.syncItems(tx, quote)
	})
}

// syncItems replaces the stored line items with the aggregate's current set
func (r *GormQuoteRepository) syncItems(tx *gorm.DB, quote *billing.Quote) error {
	if quote.ID == uuid.Nil {
		return nil
	}

	currentItemIDs := make([]uuid.UUID, len(quote.Items))
	for i, item := range quote.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("quote_id = ? AND id NOT IN ?", quote.ID, currentItemIDs).
			Delete(&billing.QuoteItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("quote_id = ?", quote.ID).
			Delete(&billing.QuoteItem{}).Error; err != nil {
			return err
		}
	}

	for i := range quote.Items {
		quote.Items[i].QuoteID = quote.ID
		if err := tx.Save(&quote.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteForOrganization deletes a quote and its items within an organization
func (r *GormQuoteRepository) DeleteForOrganization(ctx context.Context, organizationID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quote billing.Quote
		if err := tx.Where("organization_id = ? AND id = ?", organizationID, id).
			First(&quote).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Where("quote_id = ?", id).Delete(&billing.QuoteItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&billing.Quote{}, "organization_id = ? AND id = ?", organizationID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// MarkExpired flips every open quote whose validity date has passed to
// EXPIRED. Runs as a single UPDATE across all organizations.
func (r *GormQuoteRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&billing.Quote{}).
		Where("status IN ? AND valid_until < ?",
			[]billing.QuoteStatus{billing.QuoteStatusDraft, billing.QuoteStatusSent}, now).
		Updates(map[string]interface{}{
			"status":     billing.QuoteStatusExpired,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExistsByReference checks if a reference exists for an organization
func (r *GormQuoteRepository) ExistsByReference(ctx context.Context, organizationID uuid.UUID, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Quote{}).
		Where("organization_id = ? AND reference = ?", organizationID, reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateReference generates a unique quote reference for an organization,
// retrying with a fresh random suffix on collision
func (r *GormQuoteRepository) GenerateReference(ctx context.Context, organizationID uuid.UUID) (string, error) {
	now := time.Now()
	for i := 0; i < referenceAttempts; i++ {
		reference := billing.RandomReference(billing.DocumentKindQuote, organizationID, now)
		exists, err := r.ExistsByReference(ctx, organizationID, reference)
		if err != nil {
			return "", err
		}
		if !exists {
			return reference, nil
		}
	}
	return "", shared.NewDomainError("REFERENCE_EXHAUSTED", "Could not generate a unique quote reference")
}

// applyFilter applies filter options to the query
func (r *GormQuoteRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, QuoteSortFields, "issue_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order("quotes." + orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormQuoteRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.
			Joins("LEFT JOIN customers ON customers.id = quotes.customer_id").
			Where(`quotes.reference ILIKE ? OR customers.email ILIKE ? OR customers.first_name ILIKE ?
				OR customers.last_name ILIKE ? OR customers.business_name ILIKE ? OR customers.tax_id ILIKE ?`,
				pattern, pattern, pattern, pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("quotes.customer_id = ?", value)
		case "status":
			query = query.Where("quotes.status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("quotes.status IN ?", statuses)
			}
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("quotes.issue_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("quotes.issue_date <= ?", t)
			}
		case "min_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("quotes.amount_incl_tax >= ?", d)
			}
		case "max_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("quotes.amount_incl_tax <= ?", d)
			}
		}
	}

	return query
}

// Ensure GormQuoteRepository implements QuoteRepository
var _ billing.QuoteRepository = (*GormQuoteRepository)(nil)
