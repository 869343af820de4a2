package httpkit

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextOrgIDKey is the gin context key for the organization ID.
	ContextOrgIDKey = "organizationID"
	// OrgIDHeader carries the caller's organization. Authentication is
	// handled upstream of this service.
	OrgIDHeader = "X-Organization-ID"
)

// OrganizationRequired resolves the organization ID from the request header
// and stores it in the gin context. Requests without a valid UUID are rejected.
func OrganizationRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(OrgIDHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing organization header"})
			return
		}

		orgID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid organization header"})
			return
		}

		c.Set(ContextOrgIDKey, orgID)
		c.Next()
	}
}

// OrgID extracts the organization ID placed in the context by
// OrganizationRequired. The boolean is false when the middleware did not run.
func OrgID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextOrgIDKey)
	if !ok {
		return uuid.Nil, false
	}
	orgID, ok := value.(uuid.UUID)
	return orgID, ok
}
