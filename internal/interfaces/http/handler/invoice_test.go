package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingapp "github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/catalog"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/facturio/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubInvoiceRepository struct {
	billing.InvoiceRepository

	invoice   *billing.Invoice
	invoices  []billing.Invoice
	findErr   error
	saved     *billing.Invoice
	reference string
}

func (r *stubInvoiceRepository) FindByIDForOrganization(_ context.Context, _, _ uuid.UUID) (*billing.Invoice, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.invoice, nil
}

func (r *stubInvoiceRepository) FindAllForOrganization(_ context.Context, _ uuid.UUID, _ shared.Filter) ([]billing.Invoice, error) {
	return r.invoices, nil
}

func (r *stubInvoiceRepository) CountForOrganization(_ context.Context, _ uuid.UUID, _ shared.Filter) (int64, error) {
	return int64(len(r.invoices)), nil
}

func (r *stubInvoiceRepository) CountByStatus(_ context.Context, _ uuid.UUID) (billing.InvoiceStatusCounts, error) {
	counts := billing.InvoiceStatusCounts{}
	for i := range r.invoices {
		counts[r.invoices[i].Status]++
	}
	return counts, nil
}

func (r *stubInvoiceRepository) GenerateReference(_ context.Context, _ uuid.UUID) (string, error) {
	return r.reference, nil
}

func (r *stubInvoiceRepository) Save(_ context.Context, invoice *billing.Invoice) error {
	r.saved = invoice
	return nil
}

type stubProductRepository struct {
	catalog.ProductRepository
}

func (r *stubProductRepository) FindByIDsForOrganization(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]catalog.Product, error) {
	return nil, nil
}

var testOrgID = uuid.MustParse("e4b2a1f0-9c3d-4e5f-8a7b-6c5d4e3f2a1b")

func newInvoiceRouter(repo *stubInvoiceRepository) *gin.Engine {
	productRepo := &stubProductRepository{}
	resolver := billingapp.NewLineResolver(productRepo, zap.NewNop())
	scope := billingapp.NewNoOpTransactionScope(repo, nil, productRepo)
	invoiceService := billingapp.NewInvoiceService(repo, resolver, scope, zap.NewNop())
	paymentService := billingapp.NewPaymentService(repo, zap.NewNop())

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.Use(middleware.OrganizationContext())
	NewInvoiceHandler(invoiceService, paymentService, nil).RegisterRoutes(api)
	return engine
}

func testDomainInvoice(t *testing.T) *billing.Invoice {
	t.Helper()

	invoice, err := billing.NewInvoice(testOrgID, uuid.New(), "INV-A1B2C3-202608-001", uuid.New(),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	line, err := billing.NewLineData(nil, "Consulting", "", decimal.NewFromInt(2),
		decimal.NewFromInt(500), valueobject.VATRateStandard, "day")
	require.NoError(t, err)
	require.NoError(t, invoice.ReplaceLines([]billing.LineData{line}))
	return invoice
}

func doInvoiceRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.OrganizationIDHeader, testOrgID.String())
	req.Header.Set(middleware.UserIDHeader, uuid.NewString())
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInvoiceHandlerGetByID(t *testing.T) {
	t.Run("returns invoice", func(t *testing.T) {
		invoice := testDomainInvoice(t)
		router := newInvoiceRouter(&stubInvoiceRepository{invoice: invoice})

		w := doInvoiceRequest(router, "GET", "/api/v1/invoices/"+invoice.ID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		assert.Contains(t, string(data), "INV-A1B2C3-202608-001")
	})

	t.Run("unknown invoice returns 404", func(t *testing.T) {
		router := newInvoiceRouter(&stubInvoiceRepository{findErr: shared.ErrNotFound})

		w := doInvoiceRequest(router, "GET", "/api/v1/invoices/"+uuid.NewString(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		router := newInvoiceRouter(&stubInvoiceRepository{})

		w := doInvoiceRequest(router, "GET", "/api/v1/invoices/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing organization header returns 401", func(t *testing.T) {
		router := newInvoiceRouter(&stubInvoiceRepository{})

		req := httptest.NewRequest("GET", "/api/v1/invoices/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestInvoiceHandlerCreate(t *testing.T) {
	t.Run("creates invoice", func(t *testing.T) {
		repo := &stubInvoiceRepository{reference: "INV-D4E5F6-202608-002"}
		router := newInvoiceRouter(repo)

		body := map[string]any{
			"customer_id": uuid.NewString(),
			"due_date":    "2099-12-31T00:00:00Z",
			"lines": []map[string]any{
				{"name": "Audit", "quantity": "3", "unit_price": "800", "vat_rate": "20"},
			},
		}
		w := doInvoiceRequest(router, "POST", "/api/v1/invoices", body)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NotNil(t, repo.saved)
		assert.Equal(t, "INV-D4E5F6-202608-002", repo.saved.Reference)
		assert.Equal(t, testOrgID, repo.saved.OrganizationID)
	})

	t.Run("rejects body without lines", func(t *testing.T) {
		router := newInvoiceRouter(&stubInvoiceRepository{})

		body := map[string]any{
			"customer_id": uuid.NewString(),
			"due_date":    "2099-12-31T00:00:00Z",
		}
		w := doInvoiceRequest(router, "POST", "/api/v1/invoices", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInvoiceHandlerList(t *testing.T) {
	invoices := make([]billing.Invoice, 0, 3)
	for i := 0; i < 3; i++ {
		invoice := testDomainInvoice(t)
		invoice.Reference = fmt.Sprintf("INV-A1B2C3-202608-%03d", i+1)
		invoices = append(invoices, *invoice)
	}
	router := newInvoiceRouter(&stubInvoiceRepository{invoices: invoices})

	w := doInvoiceRequest(router, "GET", "/api/v1/invoices?page=1&page_size=2", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 2, resp.Meta.PageSize)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var body struct {
		Items   []json.RawMessage `json:"items"`
		Summary struct {
			Pending int64 `json:"pending"`
			Total   int64 `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Len(t, body.Items, 3)
	assert.Equal(t, int64(3), body.Summary.Pending)
	assert.Equal(t, int64(3), body.Summary.Total)
}

func TestInvoiceHandlerListPayments(t *testing.T) {
	invoice := testDomainInvoice(t)
	router := newInvoiceRouter(&stubInvoiceRepository{invoice: invoice})

	w := doInvoiceRequest(router, "GET", "/api/v1/invoices/"+invoice.ID.String()+"/payments", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}
