package billing

import (
	"testing"
	"time"

	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func requireDomainError(t *testing.T, err error) *shared.DomainError {
	t.Helper()
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok, "expected a domain error, got %T: %v", err, err)
	return domainErr
}

func mustLine(t *testing.T, quantity, unitPrice float64, rate valueobject.VATRate) LineData {
	t.Helper()
	line, err := NewLineData(nil, "Test line", "", decimal.NewFromFloat(quantity), decimal.NewFromFloat(unitPrice), rate, "unit")
	require.NoError(t, err)
	return line
}

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	issue := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	invoice, err := NewInvoice(uuid.New(), uuid.New(), "INV-ABCDEF-202608-001", uuid.New(), issue, issue.AddDate(0, 1, 0))
	require.NoError(t, err)
	return invoice
}

func newTestQuote(t *testing.T) *Quote {
	t.Helper()
	issue := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	quote, err := NewQuote(uuid.New(), uuid.New(), "QUO-ABCDEF-202608-001", uuid.New(), issue, issue.AddDate(0, 1, 0))
	require.NoError(t, err)
	return quote
}
