package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the token routes. They're the only API routes that
// don't require authentication.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, sessions SessionStore) *Service {
	authService := NewService(db, cfg, sessions)

	h := &handler{
		authService: authService,
	}

	token := e.Group("/token")
	token.POST("", h.obtain)
	token.POST("/refresh", h.refresh)
	token.POST("/logout", h.logout)

	return authService
}
