package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all author routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	authorService := NewService(db)

	h := &handler{
		authorService: authorService,
	}

	authors := e.Group("/authors")
	authors.Use(authMiddleware.Authenticate)

	authors.GET("", h.list)
	authors.POST("", h.create)
	authors.GET("/:id", h.retrieve)
	authors.PUT("/:id", h.replace)
	authors.PATCH("/:id", h.patch)
	authors.DELETE("/:id", h.deleteAuthor)

	return authorService
}
