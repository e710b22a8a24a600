package billing

import (
	"context"
	"net/url"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/identity"
	"github.com/facturio/backend/internal/domain/partner"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentPDF is the payload handed to the PDF renderer: the document plus
// the parties it involves.
type DocumentPDF struct {
	Kind         billing.DocumentKind
	Invoice      *billing.Invoice
	Quote        *billing.Quote
	Customer     *partner.Customer
	Organization *identity.Organization
}

// PDFRenderer renders a document to a PDF byte stream
type PDFRenderer interface {
	Render(ctx context.Context, doc DocumentPDF) ([]byte, error)
}

// EmailMessage is an outbound e-mail with a single PDF attachment
type EmailMessage struct {
	To             string
	FromName       string
	ReplyTo        string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// EmailSender delivers outbound e-mail
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// PaymentLinkRequest describes the hosted checkout session to create for an
// invoice. AmountMinor is the remaining balance in cents. SuccessURL and
// CancelURL are the caller-chosen redirect targets; when empty the provider
// falls back to its configured defaults.
type PaymentLinkRequest struct {
	OrganizationID  uuid.UUID
	StripeAccountID string
	InvoiceID       uuid.UUID
	Reference       string
	CustomerEmail   string
	AmountMinor     int64
	Currency        string
	SuccessURL      string
	CancelURL       string
}

// PaymentLinkProvider creates hosted payment links for invoices
type PaymentLinkProvider interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (string, error)
}

// DispatchService e-mails documents to customers as PDF attachments and,
// for invoices, optionally includes a hosted payment link. Sending and the
// status flip are deliberately separate writes: a document that reached the
// customer stays sent even if the flip fails afterwards.
type DispatchService struct {
	invoiceRepo  billing.InvoiceRepository
	quoteRepo    billing.QuoteRepository
	customerRepo partner.CustomerRepository
	userRepo     identity.UserRepository
	orgRepo      identity.OrganizationRepository
	renderer     PDFRenderer
	mailer       EmailSender
	payments     PaymentLinkProvider
	logger       *zap.Logger
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(
	invoiceRepo billing.InvoiceRepository,
	quoteRepo billing.QuoteRepository,
	customerRepo partner.CustomerRepository,
	userRepo identity.UserRepository,
	orgRepo identity.OrganizationRepository,
	renderer PDFRenderer,
	mailer EmailSender,
	payments PaymentLinkProvider,
	logger *zap.Logger,
) *DispatchService {
	return &DispatchService{
		invoiceRepo:  invoiceRepo,
		quoteRepo:    quoteRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		orgRepo:      orgRepo,
		renderer:     renderer,
		mailer:       mailer,
		payments:     payments,
		logger:       logger,
	}
}

// SendInvoice e-mails an invoice PDF to its customer and flips a pending
// invoice to SENT
func (s *DispatchService) SendInvoice(ctx context.Context, organizationID, userID, invoiceID uuid.UUID, req SendDocumentRequest) (*SendDocumentResponse, error) {
	return s.sendInvoice(ctx, organizationID, userID, invoiceID, req, false)
}

// SendInvoiceWithPaymentLink e-mails an invoice PDF together with a hosted
// payment link for the remaining balance. The organization must have a
// Stripe account ready to collect payments.
func (s *DispatchService) SendInvoiceWithPaymentLink(ctx context.Context, organizationID, userID, invoiceID uuid.UUID, req SendDocumentRequest) (*SendDocumentResponse, error) {
	return s.sendInvoice(ctx, organizationID, userID, invoiceID, req, true)
}

func (s *DispatchService) sendInvoice(ctx context.Context, organizationID, userID, invoiceID uuid.UUID, req SendDocumentRequest, withPaymentLink bool) (*SendDocumentResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrganization(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, serviceError(s.logger, "send invoice", err)
	}
	if invoice.IsCancelled() {
		return nil, shared.NewDomainError("INVOICE_CANCELLED", "Cannot send a cancelled invoice")
	}

	customer, org, sender, err := s.loadParties(ctx, organizationID, userID, invoice.CustomerID)
	if err != nil {
		return nil, serviceError(s.logger, "send invoice", err)
	}

	var paymentURL string
	if withPaymentLink {
		if invoice.IsPaid() {
			return nil, shared.NewDomainError("INVOICE_ALREADY_PAID", "Invoice is already paid")
		}
		if !org.CanCollectPayments() {
			return nil, shared.NewDomainError("PAYMENTS_NOT_ENABLED", "Organization cannot collect online payments")
		}
		if err := validateRedirectURL(req.SuccessURL); err != nil {
			return nil, err
		}
		if err := validateRedirectURL(req.CancelURL); err != nil {
			return nil, err
		}
		remaining := valueobject.NewMoneyEUR(invoice.AmountInclTax.Sub(invoice.PaidTotal()))
		paymentURL, err = s.payments.CreatePaymentLink(ctx, PaymentLinkRequest{
			OrganizationID:  organizationID,
			StripeAccountID: org.StripeAccountID,
			InvoiceID:       invoice.ID,
			Reference:       invoice.Reference,
			CustomerEmail:   customer.Email,
			AmountMinor:     remaining.MinorUnits(),
			Currency:        string(remaining.Currency()),
			SuccessURL:      req.SuccessURL,
			CancelURL:       req.CancelURL,
		})
		if err != nil {
			s.logger.Error("payment link creation failed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
			return nil, shared.ErrInternal
		}
	}

	pdf, err := s.renderer.Render(ctx, DocumentPDF{
		Kind:         billing.DocumentKindInvoice,
		Invoice:      invoice,
		Customer:     customer,
		Organization: org,
	})
	if err != nil || len(pdf) == 0 {
		s.logger.Error("invoice PDF rendering failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("PDF_GENERATION_FAILED", "PDF generation failed")
	}

	subject := req.Subject
	if subject == "" {
		subject = "Invoice " + invoice.Reference
	}
	body := req.Message
	if paymentURL != "" {
		if body != "" {
			body += "\n\n"
		}
		body += "Pay online: " + paymentURL
	}

	if err := s.mailer.Send(ctx, EmailMessage{
		To:             customer.Email,
		FromName:       org.Name,
		ReplyTo:        sender.Email,
		Subject:        subject,
		Body:           body,
		AttachmentName: invoice.Reference + ".pdf",
		Attachment:     pdf,
	}); err != nil {
		s.logger.Error("invoice e-mail delivery failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("recipient", customer.Email),
			zap.Error(err))
		return nil, shared.NewDomainError("EMAIL_SEND_FAILED", "Email delivery failed")
	}

	// The e-mail is out; the flip is best-effort from here on
	if invoice.MarkSent() {
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			s.logger.Warn("invoice was sent but the status flip failed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
		}
	}

	return &SendDocumentResponse{
		Sent:       true,
		Recipient:  customer.Email,
		Status:     string(invoice.Status),
		PaymentURL: paymentURL,
	}, nil
}

// SendQuote e-mails a quote PDF to its customer and flips a draft quote to
// SENT
func (s *DispatchService) SendQuote(ctx context.Context, organizationID, userID, quoteID uuid.UUID, req SendDocumentRequest) (*SendDocumentResponse, error) {
	quote, err := s.quoteRepo.FindByIDForOrganization(ctx, organizationID, quoteID)
	if err != nil {
		return nil, serviceError(s.logger, "send quote", err)
	}

	customer, org, sender, err := s.loadParties(ctx, organizationID, userID, quote.CustomerID)
	if err != nil {
		return nil, serviceError(s.logger, "send quote", err)
	}

	pdf, err := s.renderer.Render(ctx, DocumentPDF{
		Kind:         billing.DocumentKindQuote,
		Quote:        quote,
		Customer:     customer,
		Organization: org,
	})
	if err != nil || len(pdf) == 0 {
		s.logger.Error("quote PDF rendering failed",
			zap.String("quote_id", quote.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("PDF_GENERATION_FAILED", "PDF generation failed")
	}

	subject := req.Subject
	if subject == "" {
		subject = "Quote " + quote.Reference
	}

	if err := s.mailer.Send(ctx, EmailMessage{
		To:             customer.Email,
		FromName:       org.Name,
		ReplyTo:        sender.Email,
		Subject:        subject,
		Body:           req.Message,
		AttachmentName: quote.Reference + ".pdf",
		Attachment:     pdf,
	}); err != nil {
		s.logger.Error("quote e-mail delivery failed",
			zap.String("quote_id", quote.ID.String()),
			zap.String("recipient", customer.Email),
			zap.Error(err))
		return nil, shared.NewDomainError("EMAIL_SEND_FAILED", "Email delivery failed")
	}

	if quote.MarkSent() {
		if err := s.quoteRepo.SaveWithLock(ctx, quote); err != nil {
			s.logger.Warn("quote was sent but the status flip failed",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err))
		}
	}

	return &SendDocumentResponse{
		Sent:      true,
		Recipient: customer.Email,
		Status:    string(quote.Status),
	}, nil
}

// validateRedirectURL accepts an empty value (the provider default applies)
// and otherwise requires an absolute http or https URL
func validateRedirectURL(raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return shared.NewDomainError("INVALID_REDIRECT_URL", "Redirect URL must be an absolute http(s) URL")
	}
	return nil
}

func (s *DispatchService) loadParties(ctx context.Context, organizationID, userID, customerID uuid.UUID) (*partner.Customer, *identity.Organization, *identity.User, error) {
	customer, err := s.customerRepo.FindByIDForOrganization(ctx, organizationID, customerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !customer.HasEmail() {
		return nil, nil, nil, shared.NewDomainError("CUSTOMER_NO_EMAIL", "Customer has no email address")
	}

	org, err := s.orgRepo.FindByID(ctx, organizationID)
	if err != nil {
		return nil, nil, nil, err
	}

	sender, err := s.userRepo.FindByIDForOrganization(ctx, organizationID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return customer, org, sender, nil
}
