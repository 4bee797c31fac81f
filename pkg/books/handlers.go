package books

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/lending/pkg/borrowing"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/models"
	"github.com/shishobooks/lending/pkg/pagination"
)

// UserIDHeader names the user a borrow or return is done on behalf of.
const UserIDHeader = "X-User-Id"

type handler struct {
	bookService *Service
	engine      *borrowing.Engine
	pageSize    int
}

func newBookResponse(book *models.Book) BookResponse {
	return BookResponse{
		ID:         book.ID,
		Title:      book.Title,
		Author:     book.AuthorID,
		IsBorrowed: book.IsBorrowed(),
	}
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{Title: params.Title, AuthorID: params.Author}
	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, newBookResponse(book)))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	page, err := pagination.Parse(params.Page, h.pageSize)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		IsBorrowed: params.IsBorrowed,
		Limit:      &limit,
		Offset:     &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	results := make([]BookResponse, 0, len(books))
	for _, book := range books {
		results = append(results, newBookResponse(book))
	}

	resp, err := pagination.NewEnvelope(c, page, total, results)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) replace(c echo.Context) error {
	params := ReplaceBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	return h.update(c, UpdateBookPayload{Title: &params.Title, Author: &params.Author})
}

func (h *handler) patch(c echo.Context) error {
	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	return h.update(c, params)
}

func (h *handler) update(c echo.Context, params UpdateBookPayload) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed
	opts := UpdateBookOptions{Columns: []string{}}

	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Author != nil && *params.Author != book.AuthorID {
		book.AuthorID = *params.Author
		opts.Columns = append(opts.Columns, "author_id")
	}

	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

// borrowing borrows or returns a book on behalf of the user named in the
// X-User-Id header.
func (h *handler) borrowing(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	params := BorrowingPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	actorUserID := c.Request().Header.Get(UserIDHeader)
	book, err = h.engine.Apply(ctx, book, borrowing.Action(params.Action), actorUserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

func (h *handler) deleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
