package testutils

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/lending/pkg/models"
	"github.com/shishobooks/lending/pkg/users"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	userService *users.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	IsStaff  *bool  `json:"is_staff"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

// createUser creates a user that can log in with the given password. Users
// are staff unless is_staff is false.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	staff := req.IsStaff == nil || *req.IsStaff
	user, err := h.userService.Create(ctx, users.CreateUserOptions{
		Username: req.Username,
		Password: req.Password,
		IsStaff:  staff,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return errors.WithStack(c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}))
}

// deleteAllDataResponse is the response body for wiping the database.
type deleteAllDataResponse struct {
	Books   int `json:"books"`
	Authors int `json:"authors"`
	Users   int `json:"users"`
}

// deleteAllData deletes every book, author and user.
// DELETE /test/data.
func (h *handler) deleteAllData(c echo.Context) error {
	ctx := c.Request().Context()

	resp := deleteAllDataResponse{}
	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Books go first since they reference both authors and users.
		targets := []struct {
			model interface{}
			count *int
		}{
			{(*models.Book)(nil), &resp.Books},
			{(*models.Author)(nil), &resp.Authors},
			{(*models.User)(nil), &resp.Users},
		}
		for _, target := range targets {
			result, err := tx.NewDelete().
				Model(target.model).
				Where("1=1").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			deleted, _ := result.RowsAffected()
			*target.count = int(deleted)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete data")
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
