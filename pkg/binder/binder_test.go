package binder

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows application/json and application/x-www-form-urlencoded", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}

type actionParams struct {
	Action string `json:"action" form:"action" validate:"required,oneof=borrow return"`
	Name   string `json:"name" form:"name" mod:"trim" validate:"omitempty,notblank,max=255"`
}

func TestBind_ValidationErrorsAreKeyedByField(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	c := newContext(`{"action":"lend"}`, echo.MIMEApplicationJSON)
	p := actionParams{}
	err = b.Bind(&p, c)
	require.Error(t, err)

	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{`"action" must be one of the following: "borrow", "return"`}, fe["action"])
}

func TestBind_RequiredField(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	c := newContext(`{}`, echo.MIMEApplicationJSON)
	p := actionParams{}
	err = b.Bind(&p, c)

	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{`"action" is required`}, fe["action"])
}

func TestBind_FormPayload(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	c := newContext("action=return", echo.MIMEApplicationForm)
	p := actionParams{}
	err = b.Bind(&p, c)
	require.NoError(t, err)
	assert.Equal(t, "return", p.Action)
}

type listParams struct {
	IsBorrowed *bool  `query:"is_borrowed"`
	Page       string `query:"page"`
}

func newQueryContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.GET, target, nil)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}

func TestBind_TypeErrorsAreKeyedByField(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	c := newContext(`{"action":5}`, echo.MIMEApplicationJSON)
	p := actionParams{}
	err = b.Bind(&p, c)

	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{`"action" should be of type string`}, fe["action"])

	c = newQueryContext("/books?is_borrowed=maybe")
	lp := listParams{}
	err = b.Bind(&lp, c)

	fe = nil
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "is_borrowed")
}

func TestBind_QueryIgnoresUnknownParameters(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	c := newQueryContext("/books?is_borrowed=false&format=json&page=2")
	p := listParams{}
	require.NoError(t, b.Bind(&p, c))
	require.NotNil(t, p.IsBorrowed)
	assert.False(t, *p.IsBorrowed)
	assert.Equal(t, "2", p.Page)
}
