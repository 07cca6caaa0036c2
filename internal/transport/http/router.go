package httptransport

import (
	"log/slog"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/contacts-api/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Contacts *handler.ContactHandler
	Health   *handler.HealthHandler
}

type RouterConfig struct {
	Production        bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func NewRouter(logger *slog.Logger, cfg RouterConfig, sessions *auth.SessionResolver, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(cfg.Production))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	limit := func() gin.HandlerFunc {
		return middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	authMW := middleware.Auth(sessions, logger)

	r.GET("/", limit(), h.Health.Root)

	api := r.Group("/api")
	api.GET("/healthchecker", h.Health.Check)

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Auth.Signup)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/refresh_token", h.Auth.Refresh)
	authGroup.GET("/confirmed_email/:token", h.Auth.ConfirmEmail)
	authGroup.POST("/request_email", h.Auth.RequestEmail)
	authGroup.POST("/request_reset_password", h.Auth.RequestResetPassword)
	authGroup.POST("/set_new_password/:token", h.Auth.SetNewPassword)

	// Protected user routes
	users := api.Group("/users", authMW)
	users.GET("/me", h.Users.Me)
	users.PATCH("/avatar", h.Users.UpdateAvatar)

	// Protected contact routes
	contacts := api.Group("/contacts", authMW)
	contacts.GET("", limit(), h.Contacts.List)
	contacts.POST("", limit(), h.Contacts.Create)
	contacts.GET("/:id", limit(), h.Contacts.GetByID)
	contacts.PUT("/:id", h.Contacts.Update)
	contacts.DELETE("/:id", h.Contacts.Delete)

	return r
}
