package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVATRate_IsValid(t *testing.T) {
	tests := []struct {
		rate    VATRate
		isValid bool
	}{
		{VATRateZero, true},
		{VATRateSuperReduced, true},
		{VATRateReduced, true},
		{VATRateIntermediate, true},
		{VATRateStandard, true},
		{VATRate("19.6"), false},
		{VATRate(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.rate), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.rate.IsValid())
		})
	}
}

func TestVATRate_Percent(t *testing.T) {
	tests := []struct {
		rate    VATRate
		percent string
	}{
		{VATRateZero, "0"},
		{VATRateSuperReduced, "2.1"},
		{VATRateReduced, "5.5"},
		{VATRateIntermediate, "10"},
		{VATRateStandard, "20"},
	}

	for _, tt := range tests {
		t.Run(string(tt.rate), func(t *testing.T) {
			p, err := tt.rate.Percent()
			require.NoError(t, err)
			assert.Equal(t, tt.percent, p.String())
		})
	}

	t.Run("unknown rate errors", func(t *testing.T) {
		_, err := VATRate("7").Percent()
		assert.Error(t, err)
	})
}

func TestVATRate_TaxOn(t *testing.T) {
	amount := NewMoneyEURFromFloat(100)

	tax, err := VATRateStandard.TaxOn(amount)
	require.NoError(t, err)
	assert.Equal(t, "20.00", tax.StringFixed(2))

	tax, err = VATRateReduced.TaxOn(amount)
	require.NoError(t, err)
	assert.Equal(t, "5.50", tax.StringFixed(2))

	tax, err = VATRateZero.TaxOn(amount)
	require.NoError(t, err)
	assert.True(t, tax.IsZero())
}

func TestParseVATRate(t *testing.T) {
	r, err := ParseVATRate("20")
	require.NoError(t, err)
	assert.Equal(t, VATRateStandard, r)

	_, err = ParseVATRate("21")
	assert.Error(t, err)
}
