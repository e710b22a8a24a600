package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appbilling "github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/identity"
	"github.com/facturio/backend/internal/domain/partner"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/facturio/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInvoiceDocument(t *testing.T) appbilling.DocumentPDF {
	t.Helper()

	organizationID := uuid.New()
	issueDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	invoice, err := billing.NewInvoice(organizationID, uuid.New(), "INV-ABCDEF-202608-001",
		uuid.New(), issueDate, issueDate.AddDate(0, 1, 0))
	require.NoError(t, err)

	line, err := billing.NewLineData(nil, "Consulting", "", decimal.NewFromInt(2),
		decimal.NewFromInt(500), valueobject.VATRateStandard, "day")
	require.NoError(t, err)
	require.NoError(t, invoice.ReplaceLines([]billing.LineData{line}))

	customer, err := partner.NewBusinessCustomer(organizationID, "Acme SARL", "FR123456789", "billing@acme.example")
	require.NoError(t, err)

	org, err := identity.NewOrganization("Facturio Demo")
	require.NoError(t, err)

	return appbilling.DocumentPDF{
		Kind:         billing.DocumentKindInvoice,
		Invoice:      invoice,
		Customer:     customer,
		Organization: org,
	}
}

func TestPDFServiceClient_Render(t *testing.T) {
	t.Run("posts document and returns PDF bytes", func(t *testing.T) {
		var received renderRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/render", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.7 test"))
		}))
		defer server.Close()

		client := NewPDFServiceClient(config.DispatchConfig{
			PDFServiceURL: server.URL,
			PDFTimeout:    5 * time.Second,
		})

		pdf, err := client.Render(context.Background(), testInvoiceDocument(t))

		assert.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7 test"), pdf)
		assert.Equal(t, "INV", received.Kind)
		assert.Equal(t, "INV-ABCDEF-202608-001", received.Reference)
		assert.Equal(t, "Acme SARL", received.Recipient.Name)
		require.Len(t, received.Lines, 1)
		assert.Equal(t, "Consulting", received.Lines[0].Name)
		assert.Equal(t, "20", received.Lines[0].VATRate)
	})

	t.Run("fails on HTTP error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "template not found", http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		client := NewPDFServiceClient(config.DispatchConfig{
			PDFServiceURL: server.URL,
			PDFTimeout:    5 * time.Second,
		})

		pdf, err := client.Render(context.Background(), testInvoiceDocument(t))

		assert.Error(t, err)
		assert.Nil(t, pdf)
		assert.Contains(t, err.Error(), "HTTP 422")
	})

	t.Run("fails on empty response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewPDFServiceClient(config.DispatchConfig{
			PDFServiceURL: server.URL,
			PDFTimeout:    5 * time.Second,
		})

		pdf, err := client.Render(context.Background(), testInvoiceDocument(t))

		assert.Error(t, err)
		assert.Nil(t, pdf)
		assert.Contains(t, err.Error(), "empty document")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server starts its background read and
			// notices the client disconnect; otherwise r.Context() is never
			// canceled and server.Close deadlocks.
			io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))
		defer server.Close()

		client := NewPDFServiceClient(config.DispatchConfig{
			PDFServiceURL: server.URL,
			PDFTimeout:    5 * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Render(ctx, testInvoiceDocument(t))

		assert.Error(t, err)
	})

	t.Run("rejects invoice document without invoice", func(t *testing.T) {
		client := NewPDFServiceClient(config.DispatchConfig{
			PDFServiceURL: "http://localhost:0",
			PDFTimeout:    time.Second,
		})

		doc := testInvoiceDocument(t)
		doc.Invoice = nil

		_, err := client.Render(context.Background(), doc)

		assert.Error(t, err)
	})
}
