package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is empty or not whitelisted.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"reference":       true,
	"customer_id":     true,
	"issue_date":      true,
	"due_date":        true,
	"status":          true,
	"amount_excl_tax": true,
	"amount_incl_tax": true,
	"sent_at":         true,
	"paid_at":         true,
}

// QuoteSortFields contains allowed sort fields for quotes
var QuoteSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"reference":       true,
	"customer_id":     true,
	"issue_date":      true,
	"valid_until":     true,
	"status":          true,
	"amount_excl_tax": true,
	"amount_incl_tax": true,
	"sent_at":         true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"type":          true,
	"first_name":    true,
	"last_name":     true,
	"business_name": true,
	"email":         true,
	"city":          true,
	"country":       true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"unit_price": true,
	"vat_rate":   true,
	"unit":       true,
}
