package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VATRate is a closed enumeration of the VAT rates the system accepts.
// The tags follow the French VAT regime; an unknown tag is a validation
// error caught before any computation happens.
type VATRate string

const (
	VATRateZero         VATRate = "0"   // exempt
	VATRateSuperReduced VATRate = "2.1" // press, medication
	VATRateReduced      VATRate = "5.5" // essentials
	VATRateIntermediate VATRate = "10"  // restoration, transport
	VATRateStandard     VATRate = "20"  // standard rate
)

var vatRatePercent = map[VATRate]decimal.Decimal{
	VATRateZero:         decimal.Zero,
	VATRateSuperReduced: decimal.NewFromFloat(2.1),
	VATRateReduced:      decimal.NewFromFloat(5.5),
	VATRateIntermediate: decimal.NewFromInt(10),
	VATRateStandard:     decimal.NewFromInt(20),
}

// IsValid checks if the rate is one of the allowed VAT rates
func (r VATRate) IsValid() bool {
	_, ok := vatRatePercent[r]
	return ok
}

// String returns the string representation of the rate
func (r VATRate) String() string {
	return string(r)
}

// Percent returns the numeric percentage for the rate.
// Returns an error for unknown tags.
func (r VATRate) Percent() (decimal.Decimal, error) {
	p, ok := vatRatePercent[r]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unknown VAT rate: %q", r)
	}
	return p, nil
}

// TaxOn computes the tax for the given amount at this rate.
// The result keeps full precision; rounding is the caller's concern at
// final rendering.
func (r VATRate) TaxOn(amount Money) (Money, error) {
	percent, err := r.Percent()
	if err != nil {
		return Money{}, err
	}
	return amount.CalculatePercentage(percent), nil
}

// ParseVATRate validates a raw rate tag
func ParseVATRate(raw string) (VATRate, error) {
	r := VATRate(raw)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown VAT rate: %q", raw)
	}
	return r, nil
}
