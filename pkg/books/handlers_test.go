package books

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/binder"
	"github.com/shishobooks/lending/pkg/borrowing"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestHandler(t *testing.T, db *bun.DB, pageSize int) *handler {
	t.Helper()
	svc := NewService(db)
	return &handler{
		bookService: svc,
		engine:      borrowing.NewEngine(users.NewService(db), svc),
		pageSize:    pageSize,
	}
}

func newTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func withID(c echo.Context, id int) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(id))
	return c
}

func borrowingContext(t *testing.T, bookID int, action, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rr := newTestContext(t, http.MethodPatch, "/books/"+strconv.Itoa(bookID)+"/borrowing", `{"action":"`+action+`"}`)
	if userID != "" {
		c.Request().Header.Set(UserIDHeader, userID)
	}
	return withID(c, bookID), rr
}

func TestHandler_BorrowAndReturn(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 10)
	author := createAuthor(t, db, "Charles Dickens")
	user := createUser(t, db, "pip")
	actor := strconv.Itoa(user.ID)

	c, rr := newTestContext(t, http.MethodPost, "/books",
		`{"title":"A Tale of Two Cities","author":`+strconv.Itoa(author.ID)+`}`)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"id":1,"title":"A Tale of Two Cities","author":1,"is_borrowed":false}`, rr.Body.String())

	c, rr = borrowingContext(t, 1, "borrow", actor)
	require.NoError(t, h.borrowing(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"title":"A Tale of Two Cities","author":1,"is_borrowed":true}`, rr.Body.String())

	c, _ = borrowingContext(t, 1, "borrow", actor)
	err := h.borrowing(c)
	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, errcodes.FieldErrors{"action": {"Book is already borrowed."}}, fe)

	c, rr = borrowingContext(t, 1, "return", actor)
	require.NoError(t, h.borrowing(c))
	assert.JSONEq(t, `{"id":1,"title":"A Tale of Two Cities","author":1,"is_borrowed":false}`, rr.Body.String())

	c, _ = borrowingContext(t, 1, "return", actor)
	err = h.borrowing(c)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, errcodes.FieldErrors{"action": {"Book is not borrowed."}}, fe)
}

func TestHandler_Borrowing_ActorErrors(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 10)
	author := createAuthor(t, db, "Charles Dickens")

	c, _ := newTestContext(t, http.MethodPost, "/books", `{"title":"Hard Times","author":`+strconv.Itoa(author.ID)+`}`)
	require.NoError(t, h.create(c))

	tests := []struct {
		name   string
		userID string
		msg    string
	}{
		{"missing header", "", "User ID is not set in x-User-Id header."},
		{"unknown user", "42", "User ID in x-User-Id header not exists."},
		{"not a number", "pip", "User ID in x-User-Id header not exists."},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c, _ := borrowingContext(t, 1, "borrow", tt.userID)
			err := h.borrowing(c)
			var fe errcodes.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, errcodes.FieldErrors{errcodes.NonFieldErrorsKey: {tt.msg}}, fe)
		})
	}

	c, rr := newTestContext(t, http.MethodGet, "/books/1", "")
	require.NoError(t, h.retrieve(withID(c, 1)))
	assert.JSONEq(t, `{"id":1,"title":"Hard Times","author":1,"is_borrowed":false}`, rr.Body.String())
}

func TestHandler_Borrowing_UnknownBook(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, newTestDB(t), 10)

	c, _ := borrowingContext(t, 7, "borrow", "1")
	assert.ErrorIs(t, h.borrowing(c), errcodes.NotFound("Book"))
}

func TestHandler_Borrowing_InvalidAction(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 10)
	author := createAuthor(t, db, "Charles Dickens")

	c, _ := newTestContext(t, http.MethodPost, "/books", `{"title":"Hard Times","author":`+strconv.Itoa(author.ID)+`}`)
	require.NoError(t, h.create(c))

	c, _ = borrowingContext(t, 1, "steal", "")
	err := h.borrowing(c)
	require.Error(t, err)
	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "action")
}

func TestHandler_List_PaginationAndFilter(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 2)
	author := createAuthor(t, db, "Charles Dickens")
	user := createUser(t, db, "pip")

	for _, title := range []string{"Oliver Twist", "Bleak House", "Hard Times"} {
		c, _ := newTestContext(t, http.MethodPost, "/books", `{"title":"`+title+`","author":`+strconv.Itoa(author.ID)+`}`)
		require.NoError(t, h.create(c))
	}
	c, _ := borrowingContext(t, 2, "borrow", strconv.Itoa(user.ID))
	require.NoError(t, h.borrowing(c))

	type envelope struct {
		Count    int            `json:"count"`
		Next     *string        `json:"next"`
		Previous *string        `json:"previous"`
		Results  []BookResponse `json:"results"`
	}

	c, rr := newTestContext(t, http.MethodGet, "/books?page=2", "")
	require.NoError(t, h.list(c))
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, 3, env.Count)
	assert.Nil(t, env.Next)
	require.NotNil(t, env.Previous)
	assert.Equal(t, "http://example.com/books", *env.Previous)
	require.Len(t, env.Results, 1)
	assert.Equal(t, "Hard Times", env.Results[0].Title)

	c, rr = newTestContext(t, http.MethodGet, "/books?is_borrowed=true", "")
	require.NoError(t, h.list(c))
	env = envelope{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Count)
	require.Len(t, env.Results, 1)
	assert.Equal(t, "Bleak House", env.Results[0].Title)
	assert.True(t, env.Results[0].IsBorrowed)

	c, _ = newTestContext(t, http.MethodGet, "/books?page=5", "")
	assert.ErrorIs(t, h.list(c), errcodes.InvalidPage())

	c, _ = newTestContext(t, http.MethodGet, "/books?page=zero", "")
	assert.ErrorIs(t, h.list(c), errcodes.InvalidPage())
}

func TestHandler_Replace_RequiresAllFields(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 10)
	author := createAuthor(t, db, "Charles Dickens")

	c, _ := newTestContext(t, http.MethodPost, "/books", `{"title":"Hard Times","author":`+strconv.Itoa(author.ID)+`}`)
	require.NoError(t, h.create(c))

	c, _ = newTestContext(t, http.MethodPut, "/books/1", `{"title":"Hard Times, Revised"}`)
	err := h.replace(withID(c, 1))
	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "author")

	c, rr := newTestContext(t, http.MethodPatch, "/books/1", `{"title":"Hard Times, Revised"}`)
	require.NoError(t, h.patch(withID(c, 1)))
	assert.JSONEq(t, `{"id":1,"title":"Hard Times, Revised","author":1,"is_borrowed":false}`, rr.Body.String())
}

func TestHandler_Delete(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 10)
	author := createAuthor(t, db, "Charles Dickens")

	c, _ := newTestContext(t, http.MethodPost, "/books", `{"title":"Hard Times","author":`+strconv.Itoa(author.ID)+`}`)
	require.NoError(t, h.create(c))

	c, rr := newTestContext(t, http.MethodDelete, "/books/1", "")
	require.NoError(t, h.deleteBook(withID(c, 1)))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	c, _ = newTestContext(t, http.MethodGet, "/books/1", "")
	assert.ErrorIs(t, h.retrieve(withID(c, 1)), errcodes.NotFound("Book"))
}

func TestHandler_Borrowing_WrongActionType(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 10)
	author := createAuthor(t, db, "Charles Dickens")

	c, _ := newTestContext(t, http.MethodPost, "/books", `{"title":"Hard Times","author":`+strconv.Itoa(author.ID)+`}`)
	require.NoError(t, h.create(c))

	c, _ = newTestContext(t, http.MethodPatch, "/books/1/borrowing", `{"action":5}`)
	err := h.borrowing(withID(c, 1))
	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, errcodes.FieldErrors{"action": {`"action" should be of type string`}}, fe)
}

func TestHandler_List_IgnoresUnknownQueryParameters(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := newTestHandler(t, db, 10)
	author := createAuthor(t, db, "Charles Dickens")

	c, _ := newTestContext(t, http.MethodPost, "/books", `{"title":"Hard Times","author":`+strconv.Itoa(author.ID)+`}`)
	require.NoError(t, h.create(c))

	c, rr := newTestContext(t, http.MethodGet, "/books?is_borrowed=false&format=json", "")
	require.NoError(t, h.list(c))
	assert.JSONEq(t,
		`{"count":1,"next":null,"previous":null,"results":[{"id":1,"title":"Hard Times","author":1,"is_borrowed":false}]}`,
		rr.Body.String())
}
