package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/errcodes"
)

const bearerPrefix = "Bearer "

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate requires a valid access token in the Authorization header and
// an active user behind it. The user is stored in the context under "user".
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return errcodes.Unauthorized("Authentication credentials were not provided.")
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			return errcodes.Unauthorized("Authorization header must contain a Bearer token.")
		}

		claims, err := m.authService.ValidateToken(strings.TrimSpace(header[len(bearerPrefix):]), TokenTypeAccess)
		if err != nil {
			return errcodes.Unauthorized("Given token not valid for any token type")
		}

		// Verify user still exists and is active
		user, err := m.authService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("User not found or inactive")
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)

		return next(c)
	}
}
