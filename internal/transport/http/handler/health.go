package handler

import (
	"context"
	"net/http"

	"github.com/ErlanBelekov/contacts-api/internal/health"
	"github.com/gin-gonic/gin"
)

type readinessChecker interface {
	Readiness(ctx context.Context) health.HealthResult
}

type HealthHandler struct {
	checker readinessChecker
}

func NewHealthHandler(checker readinessChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Contacts API"})
}

// GET /api/healthchecker
func (h *HealthHandler) Check(c *gin.Context) {
	res := h.checker.Readiness(c.Request.Context())
	if res.Status != "up" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error connecting to the database", "checks": res.Checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database is configured and ready", "checks": res.Checks})
}
