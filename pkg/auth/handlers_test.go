package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/binder"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandler_TokenLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	h := &handler{authService: NewService(db, newTestConfig(), sessions)}
	createUser(t, db, "librarian", true, true)

	c, rr := newTestContext(t, `{"username":"librarian","password":"`+testPassword+`"}`, http.MethodPost, "/token")
	require.NoError(t, h.obtain(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var pair TokenPair
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	c, rr = newTestContext(t, `{"refresh":"`+pair.Refresh+`"}`, http.MethodPost, "/token/refresh")
	require.NoError(t, h.refresh(c))
	var refreshed AccessTokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.Access)

	c, rr = newTestContext(t, `{"refresh":"`+pair.Refresh+`"}`, http.MethodPost, "/token/logout")
	require.NoError(t, h.logout(c))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	c, _ = newTestContext(t, `{"refresh":"`+pair.Refresh+`"}`, http.MethodPost, "/token/refresh")
	err := h.refresh(c)
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusUnauthorized, e.HTTPCode)
}

func TestHandler_Obtain_NonStaffPayload(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{authService: NewService(db, newTestConfig(), statelessSessions{})}
	createUser(t, db, "reader", false, true)

	c, rr := newTestContext(t, `{"username":"reader","password":"`+testPassword+`"}`, http.MethodPost, "/token")
	err := h.obtain(c)
	require.Error(t, err)

	// Run it through the error handler to check the rendered body.
	errcodes.NewHandler().Handle(err, c)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"non_field_errors":["Only staff members are allowed to obtain a token."]}`, rr.Body.String())
}

func TestHandler_Obtain_MissingFields(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{authService: NewService(db, newTestConfig(), statelessSessions{})}

	c, _ := newTestContext(t, `{"username":"librarian"}`, http.MethodPost, "/token")
	err := h.obtain(c)
	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "password")
}
