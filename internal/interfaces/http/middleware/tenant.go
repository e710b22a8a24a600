package middleware

import (
	"net/http"

	"github.com/facturio/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by OrganizationContext
const (
	// OrganizationIDKey holds the resolved organization ID
	OrganizationIDKey = "organization_id"
	// UserIDKey holds the resolved acting user ID
	UserIDKey = "user_id"
)

// Request headers carrying tenant identity. Authentication happens upstream;
// by the time a request reaches this service the gateway has already
// translated credentials into these headers.
const (
	OrganizationIDHeader = "X-Organization-ID"
	UserIDHeader         = "X-User-ID"
)

// OrganizationContext resolves the organization and acting user from request
// headers and stores them in the gin context. Requests without a valid
// organization ID are rejected.
func OrganizationContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.GetHeader(OrganizationIDHeader))
		if err != nil || orgID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Missing or invalid organization ID"))
			return
		}
		c.Set(OrganizationIDKey, orgID)

		if userID, err := uuid.Parse(c.GetHeader(UserIDHeader)); err == nil && userID != uuid.Nil {
			c.Set(UserIDKey, userID)
		}

		c.Next()
	}
}

// GetOrganizationID returns the organization ID resolved for this request
func GetOrganizationID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(OrganizationIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// GetUserID returns the acting user ID resolved for this request
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
