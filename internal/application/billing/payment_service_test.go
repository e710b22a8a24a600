package billing

import (
	"context"
	"testing"
	"time"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPaymentServiceRecord(t *testing.T) {
	orgID := uuid.New()
	invoice := storedInvoice(t, orgID) // total 120

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindByIDForOrganization", mock.Anything, orgID, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(nil)

	service := NewPaymentService(invoiceRepo, zap.NewNop())

	resp, err := service.Record(context.Background(), orgID, invoice.ID, RecordPaymentRequest{
		Amount:    decimal.NewFromInt(50),
		Method:    "TRANSFER",
		PaidAt:    time.Now(),
		Reference: "VIR-2026-001",
	})
	require.NoError(t, err)

	assert.Equal(t, invoice.ID, resp.InvoiceID)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "TRANSFER", resp.Method)
	assert.Equal(t, billing.InvoiceStatusPending, invoice.Status)
	invoiceRepo.AssertExpectations(t)
}

func TestPaymentServiceRecordSettlesInvoice(t *testing.T) {
	orgID := uuid.New()
	invoice := storedInvoice(t, orgID) // total 120

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindByIDForOrganization", mock.Anything, orgID, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(inv *billing.Invoice) bool {
		return inv.Status == billing.InvoiceStatusPaid
	})).Return(nil)

	service := NewPaymentService(invoiceRepo, zap.NewNop())

	_, err := service.Record(context.Background(), orgID, invoice.ID, RecordPaymentRequest{
		Amount: decimal.NewFromInt(120),
		Method: "CARD",
	})
	require.NoError(t, err)
	assert.True(t, invoice.IsPaid())
	invoiceRepo.AssertExpectations(t)
}

func TestPaymentServiceRecordOverPaymentRejected(t *testing.T) {
	orgID := uuid.New()
	invoice := storedInvoice(t, orgID) // total 120

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindByIDForOrganization", mock.Anything, orgID, invoice.ID).Return(invoice, nil)

	service := NewPaymentService(invoiceRepo, zap.NewNop())

	_, err := service.Record(context.Background(), orgID, invoice.ID, RecordPaymentRequest{
		Amount: decimal.NewFromInt(150),
		Method: "TRANSFER",
	})
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "PAYMENT_EXCEEDS_TOTAL", domainErr.Code)
	assert.Equal(t, "Payment total cannot exceed invoice amount", domainErr.Message)
	invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestPaymentServiceRecordInvalidMethod(t *testing.T) {
	orgID := uuid.New()

	invoiceRepo := new(MockInvoiceRepository)
	service := NewPaymentService(invoiceRepo, zap.NewNop())

	_, err := service.Record(context.Background(), orgID, uuid.New(), RecordPaymentRequest{
		Amount: decimal.NewFromInt(10),
		Method: "BARTER",
	})
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_PAYMENT_METHOD", domainErr.Code)
	// no repository round-trip on an invalid method
	invoiceRepo.AssertNotCalled(t, "FindByIDForOrganization", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentServiceRecordConcurrencyConflict(t *testing.T) {
	orgID := uuid.New()
	invoice := storedInvoice(t, orgID)

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindByIDForOrganization", mock.Anything, orgID, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(shared.ErrConcurrencyConflict)

	service := NewPaymentService(invoiceRepo, zap.NewNop())

	_, err := service.Record(context.Background(), orgID, invoice.ID, RecordPaymentRequest{
		Amount: decimal.NewFromInt(10),
		Method: "CASH",
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestPaymentServiceListForInvoice(t *testing.T) {
	orgID := uuid.New()
	invoice := storedInvoice(t, orgID)
	_, err := invoice.RecordPayment(decimal.NewFromInt(30), billing.PaymentMethodCheck, time.Now(), "CHQ-1", "")
	require.NoError(t, err)
	_, err = invoice.RecordPayment(decimal.NewFromInt(20), billing.PaymentMethodCash, time.Now(), "", "")
	require.NoError(t, err)

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindByIDForOrganization", mock.Anything, orgID, invoice.ID).Return(invoice, nil)

	service := NewPaymentService(invoiceRepo, zap.NewNop())

	payments, err := service.ListForInvoice(context.Background(), orgID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "CHQ-1", payments[0].Reference)
	assert.Equal(t, "CASH", payments[1].Method)
}
