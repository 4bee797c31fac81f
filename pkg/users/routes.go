package users

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/auth"
	"github.com/shishobooks/lending/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) *Service {
	userService := NewService(db)

	h := &handler{
		userService: userService,
		pageSize:    cfg.PageSize,
	}

	users := e.Group("/users")

	// All user routes require authentication
	users.Use(authMiddleware.Authenticate)

	users.GET("", h.list)
	users.POST("", h.create)
	users.GET("/:id", h.retrieve)
	users.PUT("/:id", h.replace)
	users.PATCH("/:id", h.patch)
	users.DELETE("/:id", h.deleteUser)

	return userService
}
