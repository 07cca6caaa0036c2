package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/contacts-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Signup(ctx context.Context, input usecase.SignupInput, originURL string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (usecase.TokenPair, error)
	Refresh(ctx context.Context, tok auth.RefreshToken) (usecase.TokenPair, error)
	ConfirmEmail(ctx context.Context, tok auth.EmailToken) (bool, error)
	RequestConfirmation(ctx context.Context, email, originURL string) (bool, error)
	RequestPasswordReset(ctx context.Context, email, originURL string) error
	ResetPassword(ctx context.Context, tok auth.EmailToken, newPassword, confirmNewPassword string) error
}

type AuthHandler struct {
	authUsecase authUsecaser
	publicURL   string
	logger      *slog.Logger
}

// NewAuthHandler builds the handler. publicURL is the origin emailed links
// point to. Config requires it outside local; when empty it is derived from
// the request's Host, which clients control.
func NewAuthHandler(authUsecase authUsecaser, publicURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		publicURL:   publicURL,
		logger:      logger.With("component", "auth_handler"),
	}
}

type signupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email"    binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// loginRequest accepts the OAuth2 password form as well as JSON. The
// username field carries the email.
type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type newPasswordRequest struct {
	NewPassword        string `form:"new_password"         json:"new_password"         binding:"required,min=6,max=72"`
	ConfirmNewPassword string `form:"confirm_new_password" json:"confirm_new_password" binding:"required"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authUsecase.Signup(c.Request.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, h.origin(c))
	if err != nil {
		respondError(c, h.logger, "signup", err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.authUsecase.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// GET /api/auth/refresh_token with the refresh token as Bearer.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		middleware.Unauthorized(c)
		return
	}

	pair, err := h.authUsecase.Refresh(c.Request.Context(), auth.RefreshToken(raw))
	if err != nil {
		respondError(c, h.logger, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// GET /api/auth/confirmed_email/:token
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	already, err := h.authUsecase.ConfirmEmail(c.Request.Context(), auth.EmailToken(c.Param("token")))
	if err != nil {
		respondError(c, h.logger, "confirm email", err)
		return
	}
	if already {
		c.JSON(http.StatusOK, gin.H{"message": "Your email is already confirmed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email confirmed"})
}

// POST /api/auth/request_email
// Unknown addresses get the same answer as pending ones.
func (h *AuthHandler) RequestEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	already, err := h.authUsecase.RequestConfirmation(c.Request.Context(), req.Email, h.origin(c))
	if err != nil {
		respondError(c, h.logger, "request confirmation", err)
		return
	}
	if already {
		c.JSON(http.StatusOK, gin.H{"message": "Your email is already confirmed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Check your email for confirmation."})
}

// POST /api/auth/request_reset_password
func (h *AuthHandler) RequestResetPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.RequestPasswordReset(c.Request.Context(), req.Email, h.origin(c)); err != nil {
		respondError(c, h.logger, "request password reset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Check your email for a password reset link."})
}

// POST /api/auth/set_new_password/:token
// The passwords may come as JSON, form fields or query parameters.
func (h *AuthHandler) SetNewPassword(c *gin.Context) {
	var req newPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		if qerr := c.ShouldBindQuery(&req); qerr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	err := h.authUsecase.ResetPassword(c.Request.Context(), auth.EmailToken(c.Param("token")), req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		respondError(c, h.logger, "set new password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password successfully changed"})
}

func (h *AuthHandler) origin(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/"
}
