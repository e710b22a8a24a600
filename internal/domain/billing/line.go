package billing

import (
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineData carries the resolved, authoritative values for one document line.
// For product-referencing lines the price, VAT rate and unit come from the
// catalog; for ad-hoc lines they come from the request. Amount and tax are
// always computed here, never trusted from a caller.
type LineData struct {
	ProductID   *uuid.UUID
	Name        string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     valueobject.VATRate
	Unit        string
	Amount      decimal.Decimal // Quantity * UnitPrice
	TaxAmount   decimal.Decimal // Amount * VATRate / 100
}

// NewLineData validates inputs and computes the per-line amount and tax in
// full precision
func NewLineData(productID *uuid.UUID, name, description string, quantity, unitPrice decimal.Decimal, vatRate valueobject.VATRate, unit string) (LineData, error) {
	if name == "" {
		return LineData{}, shared.NewDomainError("INVALID_LINE_NAME", "Line name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return LineData{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return LineData{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !vatRate.IsValid() {
		return LineData{}, shared.NewDomainError("INVALID_VAT_RATE", "VAT rate is not an allowed rate")
	}
	if unit == "" {
		unit = "unit"
	}

	percent, err := vatRate.Percent()
	if err != nil {
		return LineData{}, shared.NewDomainError("INVALID_VAT_RATE", "VAT rate is not an allowed rate")
	}

	amount := quantity.Mul(unitPrice)
	tax := amount.Mul(percent).Div(decimal.NewFromInt(100))

	return LineData{
		ProductID:   productID,
		Name:        name,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		VATRate:     vatRate,
		Unit:        unit,
		Amount:      amount,
		TaxAmount:   tax,
	}, nil
}
