package billing

import (
	"github.com/facturio/backend/internal/domain/shared"
)

// GuardedOp identifies a mutating operation checked against a document's
// current status before it is allowed to proceed.
type GuardedOp string

const (
	OpUpdate GuardedOp = "update"
	OpDelete GuardedOp = "delete"
	OpPay    GuardedOp = "pay"
)

// statusGuard maps an operation to the statuses in which it is forbidden,
// each with its own error. Invoice and Quote instantiate this table once
// instead of duplicating guard control flow.
type statusGuard map[GuardedOp]map[string]*shared.DomainError

// check returns the guard error for (op, status), or nil when allowed
func (g statusGuard) check(op GuardedOp, status string) error {
	forbidden, ok := g[op]
	if !ok {
		return nil
	}
	if err, blocked := forbidden[status]; blocked {
		return err
	}
	return nil
}

// invoiceGuards is the guard table for invoices
var invoiceGuards = statusGuard{
	OpUpdate: {
		string(InvoiceStatusPaid):      shared.NewDomainError("INVOICE_PAID", "Cannot modify a paid invoice"),
		string(InvoiceStatusCancelled): shared.NewDomainError("INVOICE_CANCELLED", "Cannot modify a cancelled invoice"),
	},
	OpDelete: {
		string(InvoiceStatusPaid): shared.NewDomainError("INVOICE_PAID", "Cannot delete a paid invoice"),
	},
	OpPay: {
		string(InvoiceStatusCancelled): shared.NewDomainError("INVOICE_CANCELLED", "Cannot pay a cancelled invoice"),
		string(InvoiceStatusPaid):      shared.NewDomainError("INVOICE_ALREADY_PAID", "Invoice is already paid"),
	},
}

// quoteGuards is the guard table for quotes
var quoteGuards = statusGuard{
	OpUpdate: {
		string(QuoteStatusAccepted): shared.NewDomainError("QUOTE_ACCEPTED", "Cannot modify an accepted quote"),
		string(QuoteStatusRejected): shared.NewDomainError("QUOTE_REJECTED", "Cannot modify a rejected quote"),
		string(QuoteStatusExpired):  shared.NewDomainError("QUOTE_EXPIRED", "Cannot modify an expired quote"),
	},
	OpDelete: {
		string(QuoteStatusAccepted): shared.NewDomainError("QUOTE_ACCEPTED", "Cannot delete an accepted quote"),
	},
}
