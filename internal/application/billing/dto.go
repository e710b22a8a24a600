package billing

import (
	"time"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/identity"
	"github.com/facturio/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Line DTOs ====================

// DocumentLineInput represents one line of a create or update request.
// When ProductID is set the catalog values are authoritative and the price,
// VAT rate and unit fields are ignored; otherwise the line is ad-hoc and
// every field comes from the request.
type DocumentLineInput struct {
	ProductID     *uuid.UUID       `json:"product_id"`
	Name          string           `json:"name" binding:"omitempty,max=200"`
	Description   string           `json:"description"`
	Quantity      decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	VATRate       string           `json:"vat_rate"`
	Unit          string           `json:"unit" binding:"omitempty,max=20"`
	SaveAsProduct bool             `json:"save_as_product"`
}

// DocumentLineResponse represents a stored document line
type DocumentLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     string          `json:"vat_rate"`
	Unit        string          `json:"unit"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID           `json:"customer_id" binding:"required"`
	IssueDate  time.Time           `json:"issue_date"`
	DueDate    time.Time           `json:"due_date" binding:"required"`
	Conditions string              `json:"conditions"`
	Notes      string              `json:"notes"`
	Lines      []DocumentLineInput `json:"lines" binding:"required,min=1"`
}

// UpdateInvoiceRequest represents a partial update of an invoice. Nil fields
// are left untouched; a non-nil Lines replaces the full line set.
type UpdateInvoiceRequest struct {
	CustomerID *uuid.UUID           `json:"customer_id"`
	IssueDate  *time.Time           `json:"issue_date"`
	DueDate    *time.Time           `json:"due_date"`
	Conditions *string              `json:"conditions"`
	Notes      *string              `json:"notes"`
	Lines      *[]DocumentLineInput `json:"lines"`
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	Search     string                 `form:"search"`
	CustomerID *uuid.UUID             `form:"customer_id"`
	Status     *billing.InvoiceStatus `form:"status"`
	StartDate  *time.Time             `form:"start_date"`
	EndDate    *time.Time             `form:"end_date"`
	MinAmount  *decimal.Decimal       `form:"min_amount"`
	MaxAmount  *decimal.Decimal       `form:"max_amount"`
	Page       int                    `form:"page" binding:"omitempty,min=1"`
	PageSize   int                    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string                 `form:"order_by"`
	OrderDir   string                 `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CustomerSummary embeds the billed party on document detail responses
type CustomerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	City  string    `json:"city,omitempty"`
}

// OrganizationSummary embeds the issuing organization on document detail
// responses
type OrganizationSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// UserSummary embeds the issuing user on document detail responses
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID              `json:"id"`
	OrganizationID uuid.UUID              `json:"organization_id"`
	Reference      string                 `json:"reference"`
	CustomerID     uuid.UUID              `json:"customer_id"`
	IssueDate      time.Time              `json:"issue_date"`
	DueDate        time.Time              `json:"due_date"`
	Customer       *CustomerSummary       `json:"customer,omitempty"`
	Organization   *OrganizationSummary   `json:"organization,omitempty"`
	IssuedBy       *UserSummary           `json:"issued_by,omitempty"`
	Lines          []DocumentLineResponse `json:"lines"`
	Payments       []PaymentResponse      `json:"payments"`
	AmountExclTax  decimal.Decimal        `json:"amount_excl_tax"`
	TaxAmount      decimal.Decimal        `json:"tax_amount"`
	AmountInclTax  decimal.Decimal        `json:"amount_incl_tax"`
	PaidAmount     decimal.Decimal        `json:"paid_amount"`
	Status         string                 `json:"status"`
	Conditions     string                 `json:"conditions,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	SentAt         *time.Time             `json:"sent_at,omitempty"`
	PaidAt         *time.Time             `json:"paid_at,omitempty"`
	CancelledAt    *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

// InvoiceListItemResponse represents an invoice in list responses
type InvoiceListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	AmountExclTax decimal.Decimal `json:"amount_excl_tax"`
	AmountInclTax decimal.Decimal `json:"amount_incl_tax"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceListResult couples one invoice page with the org-wide status
// breakdown, both read in the same transaction. The paging fields feed the
// response meta and stay out of the data payload.
type InvoiceListResult struct {
	Items      []InvoiceListItemResponse `json:"items"`
	Summary    InvoiceStatusSummary      `json:"summary"`
	Total      int64                     `json:"-"`
	Page       int                       `json:"-"`
	PageSize   int                       `json:"-"`
	TotalPages int                       `json:"-"`
}

// InvoiceStatusSummary represents the org-wide invoice count per status
type InvoiceStatusSummary struct {
	Pending   int64 `json:"pending"`
	Sent      int64 `json:"sent"`
	Paid      int64 `json:"paid"`
	Late      int64 `json:"late"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

// ==================== Payment DTOs ====================

// RecordPaymentRequest represents a request to record a payment against an
// invoice
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	PaidAt      time.Time       `json:"paid_at"`
	Reference   string          `json:"reference" binding:"omitempty,max=100"`
	Description string          `json:"description"`
}

// PaymentResponse represents a recorded payment
type PaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	PaidAt      time.Time       `json:"paid_at"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ==================== Quote DTOs ====================

// CreateQuoteRequest represents a request to create a quote
type CreateQuoteRequest struct {
	CustomerID uuid.UUID           `json:"customer_id" binding:"required"`
	IssueDate  time.Time           `json:"issue_date"`
	ValidUntil time.Time           `json:"valid_until" binding:"required"`
	Conditions string              `json:"conditions"`
	Notes      string              `json:"notes"`
	Lines      []DocumentLineInput `json:"lines" binding:"required,min=1"`
}

// UpdateQuoteRequest represents a partial update of a quote
type UpdateQuoteRequest struct {
	CustomerID *uuid.UUID           `json:"customer_id"`
	IssueDate  *time.Time           `json:"issue_date"`
	ValidUntil *time.Time           `json:"valid_until"`
	Conditions *string              `json:"conditions"`
	Notes      *string              `json:"notes"`
	Lines      *[]DocumentLineInput `json:"lines"`
}

// QuoteListFilter represents filter options for the quote list
type QuoteListFilter struct {
	Search     string               `form:"search"`
	CustomerID *uuid.UUID           `form:"customer_id"`
	Status     *billing.QuoteStatus `form:"status"`
	StartDate  *time.Time           `form:"start_date"`
	EndDate    *time.Time           `form:"end_date"`
	MinAmount  *decimal.Decimal     `form:"min_amount"`
	MaxAmount  *decimal.Decimal     `form:"max_amount"`
	Page       int                  `form:"page" binding:"omitempty,min=1"`
	PageSize   int                  `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string               `form:"order_by"`
	OrderDir   string               `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID             uuid.UUID              `json:"id"`
	OrganizationID uuid.UUID              `json:"organization_id"`
	Reference      string                 `json:"reference"`
	CustomerID     uuid.UUID              `json:"customer_id"`
	IssueDate      time.Time              `json:"issue_date"`
	ValidUntil     time.Time              `json:"valid_until"`
	Customer       *CustomerSummary       `json:"customer,omitempty"`
	Organization   *OrganizationSummary   `json:"organization,omitempty"`
	IssuedBy       *UserSummary           `json:"issued_by,omitempty"`
	Lines          []DocumentLineResponse `json:"lines"`
	AmountExclTax  decimal.Decimal        `json:"amount_excl_tax"`
	TaxAmount      decimal.Decimal        `json:"tax_amount"`
	AmountInclTax  decimal.Decimal        `json:"amount_incl_tax"`
	Status         string                 `json:"status"`
	Conditions     string                 `json:"conditions,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	SentAt         *time.Time             `json:"sent_at,omitempty"`
	AcceptedAt     *time.Time             `json:"accepted_at,omitempty"`
	RejectedAt     *time.Time             `json:"rejected_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

// QuoteListItemResponse represents a quote in list responses
type QuoteListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	IssueDate     time.Time       `json:"issue_date"`
	ValidUntil    time.Time       `json:"valid_until"`
	AmountExclTax decimal.Decimal `json:"amount_excl_tax"`
	AmountInclTax decimal.Decimal `json:"amount_incl_tax"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuoteListResult couples one quote page with the org-wide status
// breakdown, both read in the same transaction
type QuoteListResult struct {
	Items      []QuoteListItemResponse `json:"items"`
	Summary    QuoteStatusSummary      `json:"summary"`
	Total      int64                   `json:"-"`
	Page       int                     `json:"-"`
	PageSize   int                     `json:"-"`
	TotalPages int                     `json:"-"`
}

// QuoteStatusSummary represents the org-wide quote count per status
type QuoteStatusSummary struct {
	Draft    int64 `json:"draft"`
	Sent     int64 `json:"sent"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
	Expired  int64 `json:"expired"`
	Total    int64 `json:"total"`
}

// ==================== Dispatch DTOs ====================

// SendDocumentRequest represents a request to e-mail a document to its
// customer. The redirect URLs only apply when a payment link is requested;
// empty values fall back to the configured defaults.
type SendDocumentRequest struct {
	Subject    string `json:"subject" binding:"omitempty,max=200"`
	Message    string `json:"message"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// SendDocumentResponse reports the outcome of a dispatch
type SendDocumentResponse struct {
	Sent       bool   `json:"sent"`
	Recipient  string `json:"recipient"`
	Status     string `json:"status"`
	PaymentURL string `json:"payment_url,omitempty"`
}

// ==================== Converters ====================

func toCustomerSummary(customer *partner.Customer) *CustomerSummary {
	if customer == nil {
		return nil
	}
	return &CustomerSummary{
		ID:    customer.ID,
		Name:  customer.DisplayName(),
		Email: customer.Email,
		City:  customer.City,
	}
}

func toOrganizationSummary(org *identity.Organization) *OrganizationSummary {
	if org == nil {
		return nil
	}
	return &OrganizationSummary{
		ID:    org.ID,
		Name:  org.Name,
		Email: org.Email,
	}
}

func toUserSummary(user *identity.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:    user.ID,
		Name:  user.DisplayName(),
		Email: user.Email,
	}
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(invoice *billing.Invoice) InvoiceResponse {
	lines := make([]DocumentLineResponse, len(invoice.Items))
	for i := range invoice.Items {
		item := &invoice.Items[i]
		lines[i] = DocumentLineResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     string(item.VATRate),
			Unit:        item.Unit,
			Amount:      item.Amount,
			TaxAmount:   item.TaxAmount,
		}
	}

	payments := make([]PaymentResponse, len(invoice.Payments))
	for i := range invoice.Payments {
		payments[i] = ToPaymentResponse(&invoice.Payments[i])
	}

	return InvoiceResponse{
		ID:             invoice.ID,
		OrganizationID: invoice.OrganizationID,
		Reference:      invoice.Reference,
		CustomerID:     invoice.CustomerID,
		IssueDate:      invoice.IssueDate,
		DueDate:        invoice.DueDate,
		Customer:       toCustomerSummary(invoice.Customer),
		Organization:   toOrganizationSummary(invoice.Organization),
		IssuedBy:       toUserSummary(invoice.Creator),
		Lines:          lines,
		Payments:       payments,
		AmountExclTax:  invoice.AmountExclTax,
		TaxAmount:      invoice.TaxAmount,
		AmountInclTax:  invoice.AmountInclTax,
		PaidAmount:     invoice.PaidTotal(),
		Status:         string(invoice.Status),
		Conditions:     invoice.Conditions,
		Notes:          invoice.Notes,
		SentAt:         invoice.SentAt,
		PaidAt:         invoice.PaidAt,
		CancelledAt:    invoice.CancelledAt,
		CreatedAt:      invoice.CreatedAt,
		UpdatedAt:      invoice.UpdatedAt,
		Version:        invoice.Version,
	}
}

// ToInvoiceListItemResponses converts domain invoices to list response DTOs
func ToInvoiceListItemResponses(invoices []billing.Invoice) []InvoiceListItemResponse {
	responses := make([]InvoiceListItemResponse, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		responses[i] = InvoiceListItemResponse{
			ID:            inv.ID,
			Reference:     inv.Reference,
			CustomerID:    inv.CustomerID,
			IssueDate:     inv.IssueDate,
			DueDate:       inv.DueDate,
			AmountExclTax: inv.AmountExclTax,
			AmountInclTax: inv.AmountInclTax,
			Status:        string(inv.Status),
			CreatedAt:     inv.CreatedAt,
			UpdatedAt:     inv.UpdatedAt,
		}
	}
	return responses
}

// ToInvoiceStatusSummary converts repository status counts to a summary DTO
func ToInvoiceStatusSummary(counts billing.InvoiceStatusCounts) InvoiceStatusSummary {
	return InvoiceStatusSummary{
		Pending:   counts[billing.InvoiceStatusPending],
		Sent:      counts[billing.InvoiceStatusSent],
		Paid:      counts[billing.InvoiceStatusPaid],
		Late:      counts[billing.InvoiceStatusLate],
		Cancelled: counts[billing.InvoiceStatusCancelled],
		Total:     counts.Total(),
	}
}

// ToPaymentResponse converts a domain payment to a response DTO
func ToPaymentResponse(payment *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          payment.ID,
		InvoiceID:   payment.InvoiceID,
		Amount:      payment.Amount,
		Method:      string(payment.Method),
		PaidAt:      payment.PaidAt,
		Reference:   payment.Reference,
		Description: payment.Description,
		CreatedAt:   payment.CreatedAt,
	}
}

// ToQuoteResponse converts a domain quote to a response DTO
func ToQuoteResponse(quote *billing.Quote) QuoteResponse {
	lines := make([]DocumentLineResponse, len(quote.Items))
	for i := range quote.Items {
		item := &quote.Items[i]
		lines[i] = DocumentLineResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     string(item.VATRate),
			Unit:        item.Unit,
			Amount:      item.Amount,
			TaxAmount:   item.TaxAmount,
		}
	}

	return QuoteResponse{
		ID:             quote.ID,
		OrganizationID: quote.OrganizationID,
		Reference:      quote.Reference,
		CustomerID:     quote.CustomerID,
		IssueDate:      quote.IssueDate,
		ValidUntil:     quote.ValidUntil,
		Customer:       toCustomerSummary(quote.Customer),
		Organization:   toOrganizationSummary(quote.Organization),
		IssuedBy:       toUserSummary(quote.Creator),
		Lines:          lines,
		AmountExclTax:  quote.AmountExclTax,
		TaxAmount:      quote.TaxAmount,
		AmountInclTax:  quote.AmountInclTax,
		Status:         string(quote.Status),
		Conditions:     quote.Conditions,
		Notes:          quote.Notes,
		SentAt:         quote.SentAt,
		AcceptedAt:     quote.AcceptedAt,
		RejectedAt:     quote.RejectedAt,
		CreatedAt:      quote.CreatedAt,
		UpdatedAt:      quote.UpdatedAt,
		Version:        quote.Version,
	}
}

// ToQuoteListItemResponses converts domain quotes to list response DTOs
func ToQuoteListItemResponses(quotes []billing.Quote) []QuoteListItemResponse {
	responses := make([]QuoteListItemResponse, len(quotes))
	for i := range quotes {
		q := &quotes[i]
		responses[i] = QuoteListItemResponse{
			ID:            q.ID,
			Reference:     q.Reference,
			CustomerID:    q.CustomerID,
			IssueDate:     q.IssueDate,
			ValidUntil:    q.ValidUntil,
			AmountExclTax: q.AmountExclTax,
			AmountInclTax: q.AmountInclTax,
			Status:        string(q.Status),
			CreatedAt:     q.CreatedAt,
			UpdatedAt:     q.UpdatedAt,
		}
	}
	return responses
}

// ToQuoteStatusSummary converts repository status counts to a summary DTO
func ToQuoteStatusSummary(counts billing.QuoteStatusCounts) QuoteStatusSummary {
	return QuoteStatusSummary{
		Draft:    counts[billing.QuoteStatusDraft],
		Sent:     counts[billing.QuoteStatusSent],
		Accepted: counts[billing.QuoteStatusAccepted],
		Rejected: counts[billing.QuoteStatusRejected],
		Expired:  counts[billing.QuoteStatusExpired],
		Total:    counts.Total(),
	}
}
