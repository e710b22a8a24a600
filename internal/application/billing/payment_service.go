package billing

import (
	"context"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService records payments against invoices. Recording reads the
// invoice, applies the domain checks and persists with an optimistic lock so
// two concurrent payments can never over-settle the same invoice.
type PaymentService struct {
	invoiceRepo billing.InvoiceRepository
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(invoiceRepo billing.InvoiceRepository, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// Record validates and records a payment against an invoice. When the
// cumulative paid amount reaches the invoice total the invoice flips to PAID
// in the same write.
func (s *PaymentService) Record(ctx context.Context, organizationID, invoiceID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	method := billing.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	invoice, err := s.invoiceRepo.FindByIDForOrganization(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, serviceError(s.logger, "record payment", err)
	}

	payment, err := invoice.RecordPayment(req.Amount, method, req.PaidAt, req.Reference, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, serviceError(s.logger, "record payment", err)
	}

	response := ToPaymentResponse(payment)
	return &response, nil
}

// ListForInvoice returns the payments recorded against an invoice, oldest
// first
func (s *PaymentService) ListForInvoice(ctx context.Context, organizationID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForOrganization(ctx, organizationID, invoiceID)
	if err != nil {
		return nil, serviceError(s.logger, "list payments", err)
	}

	responses := make([]PaymentResponse, len(invoice.Payments))
	for i := range invoice.Payments {
		responses[i] = ToPaymentResponse(&invoice.Payments[i])
	}
	return responses, nil
}
