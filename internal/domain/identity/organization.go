package identity

import (
	"context"

	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Organization is the tenancy boundary. Every document, product, customer
// and user belongs to exactly one organization, and every scoped query
// carries the organization ID in its predicate.
type Organization struct {
	shared.BaseAggregateRoot
	Name       string `gorm:"type:varchar(200);not null"`
	LegalName  string `gorm:"type:varchar(200)"`
	TaxID      string `gorm:"type:varchar(50)"`
	Email      string `gorm:"type:varchar(200)"`
	Phone      string `gorm:"type:varchar(50)"`
	Address    string `gorm:"type:text"`
	City       string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:varchar(100);default:'France'"`

	// Payment-provider connection. Payment links can only be created once the
	// connected account finished onboarding.
	StripeAccountID    string `gorm:"type:varchar(100)"`
	StripeChargesReady bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates a new organization
func NewOrganization(name string) (*Organization, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION_NAME", "Organization name cannot be empty")
	}
	return &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Country:           "France",
	}, nil
}

// CanCollectPayments returns true when the organization has a connected,
// fully onboarded payment-provider account
func (o *Organization) CanCollectPayments() bool {
	return o.StripeAccountID != "" && o.StripeChargesReady
}

// ConnectStripeAccount attaches a connected account to the organization
func (o *Organization) ConnectStripeAccount(accountID string, chargesReady bool) error {
	if accountID == "" {
		return shared.NewDomainError("INVALID_ACCOUNT", "Stripe account ID cannot be empty")
	}
	o.StripeAccountID = accountID
	o.StripeChargesReady = chargesReady
	o.Touch()
	o.IncrementVersion()
	return nil
}

// OrganizationRepository defines the interface for organization persistence
type OrganizationRepository interface {
	// FindByID finds an organization by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)

	// Save creates or updates an organization
	Save(ctx context.Context, org *Organization) error
}
