package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shishobooks/lending/pkg/auth"
	"github.com/shishobooks/lending/pkg/authors"
	"github.com/shishobooks/lending/pkg/binder"
	"github.com/shishobooks/lending/pkg/books"
	"github.com/shishobooks/lending/pkg/config"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/metrics"
	"github.com/shishobooks/lending/pkg/testutils"
	"github.com/shishobooks/lending/pkg/users"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, sessions auth.SessionStore) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg, sessions)
	authMiddleware := auth.NewMiddleware(authService)

	// Everything below requires a bearer token
	authors.RegisterRoutes(e, db, authMiddleware)
	books.RegisterRoutes(e, db, cfg, authMiddleware)
	users.RegisterRoutes(e, db, cfg, authMiddleware)

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
