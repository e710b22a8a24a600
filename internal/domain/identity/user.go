package identity

import (
	"context"
	"strings"

	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// User is a member of an organization who issues documents. Only the
// display fields used in email templates belong to this core; credentials
// and roles live behind the auth boundary.
type User struct {
	shared.OrgAggregateRoot
	FirstName string `gorm:"type:varchar(100);not null"`
	LastName  string `gorm:"type:varchar(100);not null"`
	Email     string `gorm:"type:varchar(200);not null;index"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user
func NewUser(organizationID uuid.UUID, firstName, lastName, email string) (*User, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, shared.NewDomainError("INVALID_USER_NAME", "First and last name are required")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email address is required")
	}
	return &User{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
	}, nil
}

// DisplayName returns the full name used in email templates
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByIDForOrganization finds a user by ID scoped to an organization
	FindByIDForOrganization(ctx context.Context, organizationID, id uuid.UUID) (*User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error
}
