package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// Security sets common HTTP security headers on every response. Outside
// development it also redirects plain HTTP to HTTPS.
func Security(production bool) gin.HandlerFunc {
	sec := secure.New(secure.Options{
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		PermissionsPolicy:    "camera=(), microphone=(), geolocation=()",
		STSSeconds:           63072000,
		STSIncludeSubdomains: true,
		SSLRedirect:          production,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:        !production,
	})

	return func(c *gin.Context) {
		if err := sec.Process(c.Writer, c.Request); err != nil {
			// secure has already written the redirect or rejection
			c.Abort()
			return
		}
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
