package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appbilling "github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
)

// maxPDFSize is the maximum accepted size for a rendered PDF (20MB)
const maxPDFSize = 20 * 1024 * 1024

// PDFServiceClient renders documents through the external PDF rendering
// service. It implements the application's PDFRenderer port.
type PDFServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPDFServiceClient creates a new PDF service client
func NewPDFServiceClient(cfg config.DispatchConfig) *PDFServiceClient {
	return &PDFServiceClient{
		baseURL: cfg.PDFServiceURL,
		httpClient: &http.Client{
			Timeout: cfg.PDFTimeout,
		},
	}
}

// renderLine is one document line in the render payload
type renderLine struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     string          `json:"vat_rate"`
	Unit        string          `json:"unit"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// renderParty is a party block (issuer or recipient) in the render payload
type renderParty struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	TaxID      string `json:"tax_id,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// renderRequest is the payload sent to the PDF service
type renderRequest struct {
	Kind          string          `json:"kind"`
	Reference     string          `json:"reference"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	ValidUntil    *time.Time      `json:"valid_until,omitempty"`
	Issuer        renderParty     `json:"issuer"`
	Recipient     renderParty     `json:"recipient"`
	Lines         []renderLine    `json:"lines"`
	AmountExclTax decimal.Decimal `json:"amount_excl_tax"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	AmountInclTax decimal.Decimal `json:"amount_incl_tax"`
	Conditions    string          `json:"conditions,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Render renders a document to PDF bytes
func (c *PDFServiceClient) Render(ctx context.Context, doc appbilling.DocumentPDF) ([]byte, error) {
	payload, err := buildRenderRequest(doc)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pdf: failed to encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pdf: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf: render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pdf: render service returned HTTP %d", resp.StatusCode)
	}

	pdf, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize))
	if err != nil {
		return nil, fmt.Errorf("pdf: failed to read response: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("pdf: render service returned an empty document")
	}

	return pdf, nil
}

func buildRenderRequest(doc appbilling.DocumentPDF) (renderRequest, error) {
	req := renderRequest{
		Kind: string(doc.Kind),
		Issuer: renderParty{
			Name:       doc.Organization.Name,
			Email:      doc.Organization.Email,
			TaxID:      doc.Organization.TaxID,
			Address:    doc.Organization.Address,
			City:       doc.Organization.City,
			PostalCode: doc.Organization.PostalCode,
			Country:    doc.Organization.Country,
		},
		Recipient: renderParty{
			Name:       doc.Customer.DisplayName(),
			Email:      doc.Customer.Email,
			TaxID:      doc.Customer.TaxID,
			Address:    doc.Customer.Address,
			City:       doc.Customer.City,
			PostalCode: doc.Customer.PostalCode,
			Country:    doc.Customer.Country,
		},
	}

	switch doc.Kind {
	case billing.DocumentKindInvoice:
		if doc.Invoice == nil {
			return renderRequest{}, fmt.Errorf("pdf: invoice document without invoice")
		}
		req.Reference = doc.Invoice.Reference
		req.IssueDate = doc.Invoice.IssueDate
		req.DueDate = &doc.Invoice.DueDate
		req.AmountExclTax = doc.Invoice.AmountExclTax
		req.TaxAmount = doc.Invoice.TaxAmount
		req.AmountInclTax = doc.Invoice.AmountInclTax
		req.Conditions = doc.Invoice.Conditions
		req.Notes = doc.Invoice.Notes
		req.Lines = make([]renderLine, len(doc.Invoice.Items))
		for i, item := range doc.Invoice.Items {
			req.Lines[i] = renderLine{
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
	case billing.DocumentKindQuote:
		if doc.Quote == nil {
			return renderRequest{}, fmt.Errorf("pdf: quote document without quote")
		}
		req.Reference = doc.Quote.Reference
		req.IssueDate = doc.Quote.IssueDate
		req.ValidUntil = &doc.Quote.ValidUntil
		req.AmountExclTax = doc.Quote.AmountExclTax
		req.TaxAmount = doc.Quote.TaxAmount
		req.AmountInclTax = doc.Quote.AmountInclTax
		req.Conditions = doc.Quote.Conditions
		req.Notes = doc.Quote.Notes
		req.Lines = make([]renderLine, len(doc.Quote.Items))
		for i, item := range doc.Quote.Items {
			req.Lines[i] = renderLine{
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
	default:
		return renderRequest{}, fmt.Errorf("pdf: unknown document kind %q", doc.Kind)
	}

	return req, nil
}

// Ensure PDFServiceClient implements PDFRenderer
var _ appbilling.PDFRenderer = (*PDFServiceClient)(nil)
