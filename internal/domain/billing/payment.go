package billing

import (
	"time"

	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodCheck    PaymentMethod = "CHECK"
	PaymentMethodCash     PaymentMethod = "CASH"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodTransfer, PaymentMethodCard, PaymentMethodCheck, PaymentMethodCash:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is a payment recorded against an invoice. Payments are
// append-only: they are never updated or deleted once recorded.
type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method      PaymentMethod   `gorm:"type:varchar(20);not null"`
	PaidAt      time.Time       `gorm:"not null"`
	Reference   string          `gorm:"type:varchar(100)"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// newPayment creates a payment row for an invoice
func newPayment(invoiceID uuid.UUID, amount decimal.Decimal, method PaymentMethod, paidAt time.Time, reference, description string) (*Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	return &Payment{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Amount:      amount,
		Method:      method,
		PaidAt:      paidAt,
		Reference:   reference,
		Description: description,
		CreatedAt:   time.Now(),
	}, nil
}

// GetAmountMoney returns the amount as Money value object
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.Amount)
}
