package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/auth"
	"github.com/shishobooks/lending/pkg/borrowing"
	"github.com/shishobooks/lending/pkg/config"
	"github.com/shishobooks/lending/pkg/users"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all book routes, including borrowing.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
		engine:      borrowing.NewEngine(users.NewService(db), bookService),
		pageSize:    cfg.PageSize,
	}

	books := e.Group("/books")
	books.Use(authMiddleware.Authenticate)

	books.GET("", h.list)
	books.POST("", h.create)
	books.GET("/:id", h.retrieve)
	books.PUT("/:id", h.replace)
	books.PATCH("/:id", h.patch)
	books.DELETE("/:id", h.deleteBook)
	books.PATCH("/:id/borrowing", h.borrowing)

	return bookService
}
