package partner

import (
	"context"
	"regexp"
	"strings"

	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerType represents the type of customer
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual" // Personal customer
	CustomerTypeBusiness   CustomerType = "business"   // Company
)

// IsValid checks if the customer type is valid
func (t CustomerType) IsValid() bool {
	return t == CustomerTypeIndividual || t == CustomerTypeBusiness
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Customer represents a billable customer of an organization.
// Documents reference customers; the email address is required for any
// send-by-email operation but not for plain CRUD.
type Customer struct {
	shared.OrgAggregateRoot
	Type         CustomerType `gorm:"type:varchar(20);not null;default:'individual'"`
	FirstName    string       `gorm:"type:varchar(100)"`
	LastName     string       `gorm:"type:varchar(100)"`
	BusinessName string       `gorm:"type:varchar(200);index"`
	TaxID        string       `gorm:"type:varchar(50);index"`
	Email        string       `gorm:"type:varchar(200);index"`
	Phone        string       `gorm:"type:varchar(50)"`
	Address      string       `gorm:"type:text"`
	City         string       `gorm:"type:varchar(100)"`
	PostalCode   string       `gorm:"type:varchar(20)"`
	Country      string       `gorm:"type:varchar(100);default:'France'"`
	Notes        string       `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewIndividualCustomer creates a new individual customer
func NewIndividualCustomer(organizationID uuid.UUID, firstName, lastName, email string) (*Customer, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "First and last name are required")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}

	return &Customer{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		Type:             CustomerTypeIndividual,
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Country:          "France",
	}, nil
}

// NewBusinessCustomer creates a new business customer
func NewBusinessCustomer(organizationID uuid.UUID, businessName, taxID, email string) (*Customer, error) {
	if strings.TrimSpace(businessName) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Business name is required")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}

	return &Customer{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		Type:             CustomerTypeBusiness,
		BusinessName:     businessName,
		TaxID:            taxID,
		Email:            email,
		Country:          "France",
	}, nil
}

// DisplayName returns the name shown on documents and emails
func (c *Customer) DisplayName() string {
	if c.Type == CustomerTypeBusiness && c.BusinessName != "" {
		return c.BusinessName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// HasEmail returns true if the customer has an email address
func (c *Customer) HasEmail() bool {
	return c.Email != ""
}

// SetEmail updates the customer email after validation
func (c *Customer) SetEmail(email string) error {
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}
	c.Email = email
	c.Touch()
	c.IncrementVersion()
	return nil
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByIDForOrganization finds a customer by ID scoped to an organization
	FindByIDForOrganization(ctx context.Context, organizationID, id uuid.UUID) (*Customer, error)

	// FindAllForOrganization finds all customers for an organization with filtering
	FindAllForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// DeleteForOrganization deletes a customer scoped to an organization
	DeleteForOrganization(ctx context.Context, organizationID, id uuid.UUID) error

	// CountForOrganization counts customers for an organization
	CountForOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error)
}
