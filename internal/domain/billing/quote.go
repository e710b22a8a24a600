package billing

import (
	"time"

	"github.com/facturio/backend/internal/domain/identity"
	"github.com/facturio/backend/internal/domain/partner"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	QuoteStatusExpired  QuoteStatus = "EXPIRED"
)

// AllQuoteStatuses returns every quote status, in display order
func AllQuoteStatuses() []QuoteStatus {
	return []QuoteStatus{
		QuoteStatusDraft,
		QuoteStatusSent,
		QuoteStatusAccepted,
		QuoteStatusRejected,
		QuoteStatusExpired,
	}
}

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// QuoteItem is a line item of a quote
type QuoteItem struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	QuoteID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID          `gorm:"type:uuid;index"`
	Name        string              `gorm:"type:varchar(200);not null"`
	Description string              `gorm:"type:text"`
	Quantity    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	VATRate     valueobject.VATRate `gorm:"type:varchar(10);not null"`
	Unit        string              `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	TaxAmount   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (QuoteItem) TableName() string {
	return "quote_items"
}

func newQuoteItem(quoteID uuid.UUID, data LineData) QuoteItem {
	now := time.Now()
	return QuoteItem{
		ID:          uuid.New(),
		QuoteID:     quoteID,
		ProductID:   data.ProductID,
		Name:        data.Name,
		Description: data.Description,
		Quantity:    data.Quantity,
		UnitPrice:   data.UnitPrice,
		VATRate:     data.VATRate,
		Unit:        data.Unit,
		Amount:      data.Amount,
		TaxAmount:   data.TaxAmount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Quote represents a quote aggregate root. It shares the invoice's shape:
// derived totals, a guarded status machine and org-scoped access.
type Quote struct {
	shared.OrgAggregateRoot
	Reference     string          `gorm:"type:varchar(50);not null"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	IssueDate     time.Time       `gorm:"not null"`
	ValidUntil    time.Time       `gorm:"not null;index"`
	Items         []QuoteItem     `gorm:"foreignKey:QuoteID"`

	// Read-side associations, populated by detail lookups only
	Customer     *partner.Customer      `gorm:"foreignKey:CustomerID"`
	Organization *identity.Organization `gorm:"foreignKey:OrganizationID"`
	Creator      *identity.User         `gorm:"belongsTo;foreignKey:CreatedBy;references:ID"`

	AmountExclTax decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AmountInclTax decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        QuoteStatus     `gorm:"type:varchar(20);not null;index"`
	Conditions    string          `gorm:"type:text"`
	Notes         string          `gorm:"type:text"`
	SentAt        *time.Time
	AcceptedAt    *time.Time
	RejectedAt    *time.Time
}

// TableName returns the table name for GORM
func (Quote) TableName() string {
	return "quotes"
}

// NewQuote creates a new quote in DRAFT status with no lines
func NewQuote(organizationID, createdBy uuid.UUID, reference string, customerID uuid.UUID, issueDate, validUntil time.Time) (*Quote, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Quote reference cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	if validUntil.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_VALIDITY_DATE", "Validity date cannot be before issue date")
	}

	return &Quote{
		OrgAggregateRoot: shared.NewOrgAggregateRootWithCreator(organizationID, createdBy),
		Reference:        reference,
		CustomerID:       customerID,
		IssueDate:        issueDate,
		ValidUntil:       validUntil,
		Items:            make([]QuoteItem, 0),
		AmountExclTax:    decimal.Zero,
		TaxAmount:        decimal.Zero,
		AmountInclTax:    decimal.Zero,
		Status:           QuoteStatusDraft,
	}, nil
}

// CanUpdate returns the guard error when the quote may not be modified
func (q *Quote) CanUpdate() error {
	return quoteGuards.check(OpUpdate, string(q.Status))
}

// CanDelete returns the guard error when the quote may not be deleted
func (q *Quote) CanDelete() error {
	return quoteGuards.check(OpDelete, string(q.Status))
}

// AddLine appends a resolved line and recomputes the totals
func (q *Quote) AddLine(data LineData) error {
	if err := q.CanUpdate(); err != nil {
		return err
	}
	q.Items = append(q.Items, newQuoteItem(q.ID, data))
	q.recalculateTotals()
	q.Touch()
	return nil
}

// ReplaceLines swaps the full set of lines and recomputes the totals
func (q *Quote) ReplaceLines(lines []LineData) error {
	if err := q.CanUpdate(); err != nil {
		return err
	}
	items := make([]QuoteItem, 0, len(lines))
	for _, data := range lines {
		items = append(items, newQuoteItem(q.ID, data))
	}
	q.Items = items
	q.recalculateTotals()
	q.Touch()
	return nil
}

// QuotePatch carries the optional fields of a partial update
type QuotePatch struct {
	CustomerID *uuid.UUID
	IssueDate  *time.Time
	ValidUntil *time.Time
	Conditions *string
	Notes      *string
}

// ApplyPatch applies a partial update, guarded by the status table
func (q *Quote) ApplyPatch(patch QuotePatch) error {
	if err := q.CanUpdate(); err != nil {
		return err
	}

	issueDate := q.IssueDate
	validUntil := q.ValidUntil
	if patch.IssueDate != nil {
		issueDate = *patch.IssueDate
	}
	if patch.ValidUntil != nil {
		validUntil = *patch.ValidUntil
	}
	if validUntil.Before(issueDate) {
		return shared.NewDomainError("INVALID_VALIDITY_DATE", "Validity date cannot be before issue date")
	}

	if patch.CustomerID != nil {
		if *patch.CustomerID == uuid.Nil {
			return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
		}
		q.CustomerID = *patch.CustomerID
	}
	q.IssueDate = issueDate
	q.ValidUntil = validUntil
	if patch.Conditions != nil {
		q.Conditions = *patch.Conditions
	}
	if patch.Notes != nil {
		q.Notes = *patch.Notes
	}
	q.Touch()
	return nil
}

// MarkSent flips a draft quote to SENT. Later statuses are left untouched
// so a re-send never regresses an accepted or rejected quote. Returns true
// when the status changed.
func (q *Quote) MarkSent() bool {
	if q.Status != QuoteStatusDraft {
		return false
	}
	now := time.Now()
	q.Status = QuoteStatusSent
	q.SentAt = &now
	q.UpdatedAt = now
	return true
}

// Accept marks the quote as accepted by the customer
func (q *Quote) Accept() error {
	if err := q.CanUpdate(); err != nil {
		return err
	}
	now := time.Now()
	q.Status = QuoteStatusAccepted
	q.AcceptedAt = &now
	q.UpdatedAt = now
	return nil
}

// Reject marks the quote as rejected by the customer
func (q *Quote) Reject() error {
	if err := q.CanUpdate(); err != nil {
		return err
	}
	now := time.Now()
	q.Status = QuoteStatusRejected
	q.RejectedAt = &now
	q.UpdatedAt = now
	return nil
}

// recalculateTotals recomputes the aggregate totals from the lines,
// accumulating in full precision
func (q *Quote) recalculateTotals() {
	excl := decimal.Zero
	tax := decimal.Zero
	for _, item := range q.Items {
		excl = excl.Add(item.Amount)
		tax = tax.Add(item.TaxAmount)
	}
	q.AmountExclTax = excl
	q.TaxAmount = tax
	q.AmountInclTax = excl.Add(tax)
}

// GetAmountExclTaxMoney returns the amount excluding tax as Money
func (q *Quote) GetAmountExclTaxMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(q.AmountExclTax)
}

// GetTaxAmountMoney returns the tax amount as Money
func (q *Quote) GetTaxAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(q.TaxAmount)
}

// GetAmountInclTaxMoney returns the amount including tax as Money
func (q *Quote) GetAmountInclTaxMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(q.AmountInclTax)
}

// IsDraft returns true if the quote is a draft
func (q *Quote) IsDraft() bool {
	return q.Status == QuoteStatusDraft
}

// IsAccepted returns true if the quote is accepted
func (q *Quote) IsAccepted() bool {
	return q.Status == QuoteStatusAccepted
}

// IsExpirable returns true when the validity date has passed and the quote
// can still be swept to EXPIRED
func (q *Quote) IsExpirable(now time.Time) bool {
	if q.Status != QuoteStatusDraft && q.Status != QuoteStatusSent {
		return false
	}
	return q.ValidUntil.Before(now)
}
