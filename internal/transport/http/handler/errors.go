package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer   = "Internal server error"
	errUnavailable      = "Service temporarily unavailable"
	errInvalidLink      = "Invalid or expired link"
	errAccountExists    = "Account already exists"
	errUserNotFound     = "User not found"
	errContactNotFound  = "Contact not found"
	errDuplicateContact = "Contact with this email or phone already exists"
	errInvalidCursor    = "Invalid cursor"
)

// respondError maps domain errors onto HTTP responses. Anything unknown is
// logged and reported as 500.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	var valErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredential):
		middleware.Unauthorized(c)
	case errors.Is(err, domain.ErrInvalidVerificationLink):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errInvalidLink})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnavailable):
		logger.ErrorContext(c.Request.Context(), op, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errUnavailable})
	case errors.Is(err, domain.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": errAccountExists})
	case errors.Is(err, domain.ErrDuplicateContact):
		c.JSON(http.StatusConflict, gin.H{"error": errDuplicateContact})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
	case errors.Is(err, domain.ErrContactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errContactNotFound})
	case errors.Is(err, domain.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCursor})
	default:
		logger.ErrorContext(c.Request.Context(), op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
