package catalog

import (
	"context"

	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog item that document lines can reference.
// Its price, VAT rate and unit are authoritative: a line referencing a
// product always copies these values, never client-supplied ones.
type Product struct {
	shared.OrgAggregateRoot
	Name        string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	UnitPrice   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	VATRate     valueobject.VATRate   `gorm:"type:varchar(10);not null;default:'20'"`
	Unit        string                `gorm:"type:varchar(20);not null;default:'unit'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new catalog product
func NewProduct(organizationID uuid.UUID, name string, unitPrice valueobject.Money, vatRate valueobject.VATRate, unit string) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot exceed 200 characters")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !vatRate.IsValid() {
		return nil, shared.NewDomainError("INVALID_VAT_RATE", "VAT rate is not an allowed rate")
	}
	if unit == "" {
		unit = "unit"
	}

	return &Product{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		Name:             name,
		UnitPrice:        unitPrice.Amount(),
		VATRate:          vatRate,
		Unit:             unit,
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string, unitPrice valueobject.Money, vatRate valueobject.VATRate, unit string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !vatRate.IsValid() {
		return shared.NewDomainError("INVALID_VAT_RATE", "VAT rate is not an allowed rate")
	}

	p.Name = name
	p.Description = description
	p.UnitPrice = unitPrice.Amount()
	p.VATRate = vatRate
	if unit != "" {
		p.Unit = unit
	}
	p.Touch()
	p.IncrementVersion()

	return nil
}

// GetUnitPriceMoney returns the unit price as Money value object
func (p *Product) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.UnitPrice)
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByIDForOrganization finds a product by ID scoped to an organization
	FindByIDForOrganization(ctx context.Context, organizationID, id uuid.UUID) (*Product, error)

	// FindByIDsForOrganization finds all products among the given IDs that
	// belong to the organization. Callers compare the returned count with the
	// requested unique count to detect missing or foreign IDs.
	FindByIDsForOrganization(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// FindAllForOrganization finds all products for an organization with filtering
	FindAllForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// DeleteForOrganization deletes a product scoped to an organization
	DeleteForOrganization(ctx context.Context, organizationID, id uuid.UUID) error

	// CountForOrganization counts products for an organization
	CountForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error)
}
