package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		expected Page
		invalid  bool
	}{
		{raw: "", expected: Page{Number: 1, Size: 10}},
		{raw: "1", expected: Page{Number: 1, Size: 10}},
		{raw: "3", expected: Page{Number: 3, Size: 10}},
		{raw: "0", invalid: true},
		{raw: "-2", invalid: true},
		{raw: "last", invalid: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			p, err := Parse(tt.raw, 10)
			if tt.invalid {
				require.Error(t, err)
				assert.ErrorIs(t, err, errcodes.InvalidPage())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestPage_LimitOffset(t *testing.T) {
	t.Parallel()

	p := Page{Number: 3, Size: 10}
	assert.Equal(t, 10, p.Limit())
	assert.Equal(t, 20, p.Offset())
}

func TestNewEnvelope_Links(t *testing.T) {
	t.Parallel()

	c := newContext("/books?is_borrowed=true&page=2")
	env, err := NewEnvelope(c, Page{Number: 2, Size: 10}, 25, []int{})
	require.NoError(t, err)

	assert.Equal(t, 25, env.Count)
	require.NotNil(t, env.Next)
	assert.Equal(t, "http://example.com/books?is_borrowed=true&page=3", *env.Next)
	require.NotNil(t, env.Previous)
	assert.Equal(t, "http://example.com/books?is_borrowed=true", *env.Previous)
}

func TestNewEnvelope_SinglePage(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(newContext("/users"), Page{Number: 1, Size: 10}, 3, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Nil(t, env.Next)
	assert.Nil(t, env.Previous)
	assert.Equal(t, []int{1, 2, 3}, env.Results)
}

func TestNewEnvelope_EmptyFirstPage(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(newContext("/users"), Page{Number: 1, Size: 10}, 0, []int{})
	require.NoError(t, err)
	assert.Equal(t, 0, env.Count)
}

func TestNewEnvelope_PastTheEnd(t *testing.T) {
	t.Parallel()

	_, err := NewEnvelope(newContext("/users?page=3"), Page{Number: 3, Size: 10}, 20, []int{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.InvalidPage())
}
