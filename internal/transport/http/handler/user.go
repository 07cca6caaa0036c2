package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type userUsecaser interface {
	UpdateAvatar(ctx context.Context, user *domain.User, file io.Reader, size int64, contentType string) (*domain.User, error)
}

type UserHandler struct {
	userUsecase userUsecaser
	logger      *slog.Logger
}

func NewUserHandler(userUsecase userUsecaser, logger *slog.Logger) *UserHandler {
	return &UserHandler{userUsecase: userUsecase, logger: logger.With("component", "user_handler")}
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
	}
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(middleware.CurrentUser(c)))
}

// PATCH /api/users/avatar (multipart field "file")
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is unreadable"})
		return
	}
	defer f.Close()

	updated, err := h.userUsecase.UpdateAvatar(c.Request.Context(), middleware.CurrentUser(c), f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, h.logger, "update avatar", err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(updated))
}
