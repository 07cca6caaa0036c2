package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
)

const errRateLimited = "Too many requests"

// RateLimit allows requests per window for each client IP and route.
// Each call owns its own counter, so routes sharing a limit need to share
// the returned handler.
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(gin.H{"error": errRateLimited})
		}),
	)

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})

		limiter(next).ServeHTTP(c.Writer, c.Request)

		if !passed {
			path := c.FullPath()
			if path == "" {
				path = "unknown"
			}
			metrics.RateLimitedTotal.WithLabelValues(path).Inc()
			c.Abort()
		}
	}
}
