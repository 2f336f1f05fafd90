package middleware

import (
	"github.com/creatorly/churnalytics/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware attaches a request id to the context and response,
// reusing the inbound header when the caller supplied one.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUIDPrefixRequest)
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Writer.Header().Set(types.HeaderRequestID, requestID)

	c.Next()
}

// TenantMiddleware scopes the request to the authenticated seller. The
// gateway in front of this service resolves authentication and forwards the
// seller id; requests without one are rejected upstream.
func TenantMiddleware(c *gin.Context) {
	sellerID := c.GetHeader(types.HeaderSellerID)
	if sellerID != "" {
		ctx := types.SetTenantID(c.Request.Context(), sellerID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_id", sellerID)
	}

	c.Next()
}
