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

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusLate      InvoiceStatus = "LATE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// AllInvoiceStatuses returns every invoice status, in display order
func AllInvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusSent,
		InvoiceStatusPaid,
		InvoiceStatusLate,
		InvoiceStatusCancelled,
	}
}

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusLate, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// paidTolerance absorbs rounding noise when deciding whether an invoice is
// fully settled. The over-payment check itself is strict.
var paidTolerance = decimal.NewFromFloat(0.01)

// InvoiceItem is a line item of an invoice, created with the invoice and
// replaced only through invoice updates
type InvoiceItem struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID           `gorm:"type:uuid;not null;index"`
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
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

func newInvoiceItem(invoiceID uuid.UUID, data LineData) InvoiceItem {
	now := time.Now()
	return InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
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

// Invoice represents an invoice aggregate root. Totals are derived from the
// line items and recomputed on every line mutation; callers never set them.
type Invoice struct {
	shared.OrgAggregateRoot
	Reference     string          `gorm:"type:varchar(50);not null"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	IssueDate     time.Time       `gorm:"not null"`
	DueDate       time.Time       `gorm:"not null;index"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID"`
	Payments      []Payment       `gorm:"foreignKey:InvoiceID"`

	// Read-side associations, populated by detail lookups only
	Customer     *partner.Customer      `gorm:"foreignKey:CustomerID"`
	Organization *identity.Organization `gorm:"foreignKey:OrganizationID"`
	Creator      *identity.User         `gorm:"belongsTo;foreignKey:CreatedBy;references:ID"`

	AmountExclTax decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AmountInclTax decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;index"`
	Conditions    string          `gorm:"type:text"`
	Notes         string          `gorm:"type:text"`
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice in PENDING status with no lines
func NewInvoice(organizationID, createdBy uuid.UUID, reference string, customerID uuid.UUID, issueDate, dueDate time.Time) (*Invoice, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Invoice reference cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}

	return &Invoice{
		OrgAggregateRoot: shared.NewOrgAggregateRootWithCreator(organizationID, createdBy),
		Reference:        reference,
		CustomerID:       customerID,
		IssueDate:        issueDate,
		DueDate:          dueDate,
		Items:            make([]InvoiceItem, 0),
		Payments:         make([]Payment, 0),
		AmountExclTax:    decimal.Zero,
		TaxAmount:        decimal.Zero,
		AmountInclTax:    decimal.Zero,
		Status:           InvoiceStatusPending,
	}, nil
}

// CanUpdate returns the guard error when the invoice may not be modified
func (i *Invoice) CanUpdate() error {
	return invoiceGuards.check(OpUpdate, string(i.Status))
}

// CanDelete returns the guard error when the invoice may not be deleted
func (i *Invoice) CanDelete() error {
	return invoiceGuards.check(OpDelete, string(i.Status))
}

// AddLine appends a resolved line and recomputes the totals
func (i *Invoice) AddLine(data LineData) error {
	if err := i.CanUpdate(); err != nil {
		return err
	}
	i.Items = append(i.Items, newInvoiceItem(i.ID, data))
	i.recalculateTotals()
	i.Touch()
	return nil
}

// ReplaceLines swaps the full set of lines and recomputes the totals
func (i *Invoice) ReplaceLines(lines []LineData) error {
	if err := i.CanUpdate(); err != nil {
		return err
	}
	items := make([]InvoiceItem, 0, len(lines))
	for _, data := range lines {
		items = append(items, newInvoiceItem(i.ID, data))
	}
	i.Items = items
	i.recalculateTotals()
	i.Touch()
	return nil
}

// InvoicePatch carries the optional fields of a partial update
type InvoicePatch struct {
	CustomerID *uuid.UUID
	IssueDate  *time.Time
	DueDate    *time.Time
	Conditions *string
	Notes      *string
}

// ApplyPatch applies a partial update, guarded by the status table
func (i *Invoice) ApplyPatch(patch InvoicePatch) error {
	if err := i.CanUpdate(); err != nil {
		return err
	}

	issueDate := i.IssueDate
	dueDate := i.DueDate
	if patch.IssueDate != nil {
		issueDate = *patch.IssueDate
	}
	if patch.DueDate != nil {
		dueDate = *patch.DueDate
	}
	if dueDate.Before(issueDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}

	if patch.CustomerID != nil {
		if *patch.CustomerID == uuid.Nil {
			return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
		}
		i.CustomerID = *patch.CustomerID
	}
	i.IssueDate = issueDate
	i.DueDate = dueDate
	if patch.Conditions != nil {
		i.Conditions = *patch.Conditions
	}
	if patch.Notes != nil {
		i.Notes = *patch.Notes
	}
	i.Touch()
	return nil
}

// Cancel cancels the invoice. Paid and already-cancelled invoices are
// blocked by the update guard.
func (i *Invoice) Cancel() error {
	if err := i.CanUpdate(); err != nil {
		return err
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.UpdatedAt = now
	return nil
}

// MarkSent flips a pending invoice to SENT. Re-sending a document that has
// progressed past SENT must not regress its status, so any other state is a
// no-op. Returns true when the status changed.
func (i *Invoice) MarkSent() bool {
	if i.Status != InvoiceStatusPending {
		return false
	}
	now := time.Now()
	i.Status = InvoiceStatusSent
	i.SentAt = &now
	i.UpdatedAt = now
	return true
}

// PaidTotal returns the sum of all recorded payments
func (i *Invoice) PaidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range i.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// RecordPayment validates and appends a payment. The cumulative paid sum
// may never exceed the invoice total (strict check); when the new sum lands
// within 0.01 of the total the invoice flips to PAID.
func (i *Invoice) RecordPayment(amount decimal.Decimal, method PaymentMethod, paidAt time.Time, reference, description string) (*Payment, error) {
	if err := invoiceGuards.check(OpPay, string(i.Status)); err != nil {
		return nil, err
	}

	payment, err := newPayment(i.ID, amount, method, paidAt, reference, description)
	if err != nil {
		return nil, err
	}

	totalPaid := i.PaidTotal().Add(amount)
	if totalPaid.GreaterThan(i.AmountInclTax) {
		return nil, shared.NewDomainError("PAYMENT_EXCEEDS_TOTAL", "Payment total cannot exceed invoice amount")
	}

	i.Payments = append(i.Payments, *payment)

	if totalPaid.Sub(i.AmountInclTax).Abs().LessThan(paidTolerance) {
		now := time.Now()
		i.Status = InvoiceStatusPaid
		i.PaidAt = &now
	}
	i.Touch()
	return payment, nil
}

// recalculateTotals recomputes the aggregate totals from the lines,
// accumulating in full precision
func (i *Invoice) recalculateTotals() {
	excl := decimal.Zero
	tax := decimal.Zero
	for _, item := range i.Items {
		excl = excl.Add(item.Amount)
		tax = tax.Add(item.TaxAmount)
	}
	i.AmountExclTax = excl
	i.TaxAmount = tax
	i.AmountInclTax = excl.Add(tax)
}

// GetAmountExclTaxMoney returns the amount excluding tax as Money
func (i *Invoice) GetAmountExclTaxMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(i.AmountExclTax)
}

// GetTaxAmountMoney returns the tax amount as Money
func (i *Invoice) GetTaxAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(i.TaxAmount)
}

// GetAmountInclTaxMoney returns the amount including tax as Money
func (i *Invoice) GetAmountInclTaxMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(i.AmountInclTax)
}

// IsPending returns true if the invoice is pending
func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusPending
}

// IsPaid returns true if the invoice is paid
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsCancelled returns true if the invoice is cancelled
func (i *Invoice) IsCancelled() bool {
	return i.Status == InvoiceStatusCancelled
}

// IsOverdue returns true when the due date has passed and the invoice can
// still be swept to LATE
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status != InvoiceStatusPending && i.Status != InvoiceStatusSent {
		return false
	}
	return i.DueDate.Before(now)
}
