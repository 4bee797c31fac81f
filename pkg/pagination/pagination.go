package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/lending/pkg/errcodes"
)

const pageParam = "page"

// Page is a 1-based page of a list endpoint.
type Page struct {
	Number int
	Size   int
}

// Parse reads the page number from its raw query value. A missing value is
// the first page; anything that isn't a positive integer is an invalid page.
func Parse(raw string, size int) (Page, error) {
	if raw == "" {
		return Page{Number: 1, Size: size}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return Page{}, errcodes.InvalidPage()
	}
	return Page{Number: n, Size: size}, nil
}

func (p Page) Limit() int {
	return p.Size
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Envelope is the response body of paginated list endpoints.
type Envelope struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// NewEnvelope wraps one page of results. Pages past the end of the list are
// invalid, except for the first page which may be empty.
func NewEnvelope(c echo.Context, p Page, count int, results interface{}) (*Envelope, error) {
	if p.Number > 1 && p.Offset() >= count {
		return nil, errcodes.InvalidPage()
	}

	env := &Envelope{Count: count, Results: results}
	if p.Offset()+p.Size < count {
		next := pageURL(c, p.Number+1)
		env.Next = &next
	}
	if p.Number > 1 {
		prev := pageURL(c, p.Number-1)
		env.Previous = &prev
	}
	return env, nil
}

// pageURL is the absolute URL of the current request pointed at another page.
// The first page is linked without a page parameter.
func pageURL(c echo.Context, number int) string {
	req := c.Request()
	q := req.URL.Query()
	if number == 1 {
		q.Del(pageParam)
	} else {
		q.Set(pageParam, strconv.Itoa(number))
	}
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}
