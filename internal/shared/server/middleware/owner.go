package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/shared/server/respond"
)

const ownerIDKey = "ownerId"

// OwnerHeader optionally scopes stored reports to a caller.
const OwnerHeader = "X-Owner-Id"

var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@\-]{1,128}$`)

// Owner reads the optional owner header and stores it in context. A
// malformed header is rejected; a missing one is allowed.
func Owner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
		if owner == "" {
			c.Next()
			return
		}
		if !ownerIDPattern.MatchString(owner) {
			respond.Error(c, http.StatusBadRequest, "invalid_owner", "X-Owner-Id is malformed", nil)
			return
		}
		c.Set(ownerIDKey, owner)
		c.Next()
	}
}

// OwnerIDFromContext fetches the owner ID set by the Owner middleware.
func OwnerIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(ownerIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
