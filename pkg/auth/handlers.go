package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	authService *Service
}

// obtain exchanges a staff member's credentials for an access/refresh pair.
func (h *handler) obtain(c echo.Context) error {
	ctx := c.Request().Context()

	params := ObtainTokenPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	tokens, err := h.authService.ObtainTokens(ctx, params.Username, params.Password)
	if err != nil {
		logger.FromContext(ctx).Info("token request refused", logger.Data{"username": params.Username})
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, tokens))
}

func (h *handler) refresh(c echo.Context) error {
	ctx := c.Request().Context()

	params := RefreshTokenPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	access, err := h.authService.RefreshAccessToken(ctx, params.Refresh)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, AccessTokenResponse{Access: access}))
}

func (h *handler) logout(c echo.Context) error {
	ctx := c.Request().Context()

	params := RefreshTokenPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.authService.Logout(ctx, params.Refresh); err != nil {
		return err
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
