package middleware

import (
	"github.com/ErlanBelekov/contacts-api/internal/requestid"
	"github.com/gin-gonic/gin"
)

// RequestID puts a request ID on the context and echoes it in X-Request-ID.
// A well-formed incoming ID is reused.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.FromHeader(c.GetHeader(requestid.Header))

		c.Request = c.Request.WithContext(requestid.WithRequestID(c.Request.Context(), id))
		c.Header(requestid.Header, id)
		c.Next()
	}
}
