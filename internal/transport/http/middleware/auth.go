package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/requestid"
	"github.com/gin-gonic/gin"
)

const (
	errUnauthorized = "Could not validate credentials"
	errUnavailable  = "Service temporarily unavailable"

	userKey = "user"
)

// bearerResolver is satisfied by *auth.SessionResolver.
type bearerResolver interface {
	ResolveBearer(ctx context.Context, tok auth.AccessToken) (*domain.User, error)
}

// Auth resolves the Bearer access token to a user and stores it in the gin
// context under "user" (and its id under "userID").
func Auth(resolver bearerResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			Unauthorized(c)
			return
		}

		user, err := resolver.ResolveBearer(c.Request.Context(), auth.AccessToken(raw))
		if err != nil {
			if errors.Is(err, domain.ErrUnavailable) {
				logger.ErrorContext(c.Request.Context(), "resolve bearer", "error", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errUnavailable})
				return
			}
			logger.DebugContext(c.Request.Context(), "bearer rejected", "error", err)
			Unauthorized(c)
			return
		}

		c.Set(userKey, user)
		c.Set("userID", user.ID)
		c.Request = c.Request.WithContext(requestid.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return tok, tok != ""
}

// Unauthorized aborts with 401 and a Bearer challenge.
func Unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
}

// CurrentUser returns the user stored by Auth, or nil outside a protected route.
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
