package users

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/models"
	"github.com/shishobooks/lending/pkg/pagination"
)

type handler struct {
	userService *Service
	pageSize    int
}

func newUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions{
		Username:  params.Username,
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, newUserResponse(user)))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, newUserResponse(user)))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	page, err := pagination.Parse(params.Page, h.pageSize)
	if err != nil {
		return err
	}

	users, total, err := h.userService.List(ctx, ListOptions{
		Limit:  page.Limit(),
		Offset: page.Offset(),
	})
	if err != nil {
		return err
	}

	results := make([]UserResponse, 0, len(users))
	for _, user := range users {
		results = append(results, newUserResponse(user))
	}

	resp, err := pagination.NewEnvelope(c, page, total, results)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) replace(c echo.Context) error {
	params := ReplaceUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	return h.update(c, UpdateUserPayload{
		Username:  &params.Username,
		Email:     &params.Email,
		FirstName: &params.FirstName,
		LastName:  &params.LastName,
	})
}

func (h *handler) patch(c echo.Context) error {
	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	return h.update(c, params)
}

func (h *handler) update(c echo.Context, params UpdateUserPayload) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	opts := UpdateOptions{Columns: []string{}}

	if params.Username != nil && *params.Username != user.Username {
		user.Username = *params.Username
		opts.Columns = append(opts.Columns, "username")
	}
	if params.Email != nil && *params.Email != user.Email {
		user.Email = *params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.FirstName != nil && *params.FirstName != user.FirstName {
		user.FirstName = *params.FirstName
		opts.Columns = append(opts.Columns, "first_name")
	}
	if params.LastName != nil && *params.LastName != user.LastName {
		user.LastName = *params.LastName
		opts.Columns = append(opts.Columns, "last_name")
	}

	if err := h.userService.Update(ctx, user, opts); err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, newUserResponse(user)))
}

func (h *handler) deleteUser(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	if err := h.userService.Delete(ctx, id); err != nil {
		return err
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
