package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var busyMarkers = []string{
	"database is locked",
	"database table is locked",
	"SQLITE_BUSY",
	"SQLITE_LOCKED",
	"(5)",
	"(6)",
}

// isBusyError matches the lock errors of both drivers sqliteshim can pick
// (mattn/go-sqlite3 and modernc.org/sqlite).
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range busyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

type backoff struct {
	maxRetries int
	base       time.Duration
	max        time.Duration
}

func newBackoff(maxRetries int) *backoff {
	return &backoff{maxRetries: maxRetries, base: 50 * time.Millisecond, max: 2 * time.Second}
}

// delay is exponential in attempt with up to 25% jitter, capped at b.max.
func (b *backoff) delay(attempt int) time.Duration {
	d := b.base << attempt
	if d <= 0 || d > b.max {
		return b.max
	}
	d += time.Duration(rand.Int63n(int64(d/4) + 1))
	if d > b.max {
		return b.max
	}
	return d
}

// do runs fn until it succeeds, fails with something other than a lock error,
// or the retries run out.
func (b *backoff) do(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isBusyError(err) || attempt >= b.maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.delay(attempt)):
		}
	}
}

// dsnConnector adapts drivers that don't implement driver.DriverContext.
type dsnConnector struct {
	drv driver.Driver
	dsn string
}

func (dc *dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return dc.drv.Open(dc.dsn)
}

func (dc *dsnConnector) Driver() driver.Driver {
	return dc.drv
}

func openConnector(drv driver.Driver, dsn string) (driver.Connector, error) {
	if dc, ok := drv.(driver.DriverContext); ok {
		return dc.OpenConnector(dsn)
	}
	return &dsnConnector{drv: drv, dsn: dsn}, nil
}

type connector struct {
	base    driver.Connector
	pragmas []string
	retry   *backoff
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	raw, err := c.base.Connect(ctx)
	if err != nil {
		return nil, err
	}
	execer, ok := raw.(driver.ExecerContext)
	if !ok {
		_ = raw.Close()
		return nil, errors.New("sqlite connection does not support ExecContext")
	}
	for _, pragma := range c.pragmas {
		if _, err := execer.ExecContext(ctx, pragma, nil); err != nil {
			_ = raw.Close()
			return nil, errors.Wrapf(err, "failed to run %q", pragma)
		}
	}
	return &conn{raw: raw, retry: c.retry}, nil
}

func (c *connector) Driver() driver.Driver {
	return c.base.Driver()
}

type conn struct {
	raw   driver.Conn
	retry *backoff
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var s driver.Stmt
	var err error
	if p, ok := c.raw.(driver.ConnPrepareContext); ok {
		s, err = p.PrepareContext(ctx, query)
	} else {
		s, err = c.raw.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &stmt{raw: s, retry: c.retry}, nil
}

func (c *conn) Close() error {
	return c.raw.Close()
}

func (c *conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (tx driver.Tx, err error) {
	err = c.retry.do(ctx, func() error {
		if b, ok := c.raw.(driver.ConnBeginTx); ok {
			tx, err = b.BeginTx(ctx, opts)
			return err
		}
		tx, err = c.raw.Begin() //nolint:staticcheck // fallback for drivers without BeginTx
		return err
	})
	return tx, err
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (res driver.Result, err error) {
	e, ok := c.raw.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	err = c.retry.do(ctx, func() error {
		res, err = e.ExecContext(ctx, query, args)
		return err
	})
	return res, err
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (rows driver.Rows, err error) {
	q, ok := c.raw.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	err = c.retry.do(ctx, func() error {
		rows, err = q.QueryContext(ctx, query, args)
		return err
	})
	return rows, err
}

func (c *conn) Ping(ctx context.Context) error {
	if p, ok := c.raw.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *conn) ResetSession(ctx context.Context) error {
	if r, ok := c.raw.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

func (c *conn) IsValid() bool {
	if v, ok := c.raw.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

type stmt struct {
	raw   driver.Stmt
	retry *backoff
}

func (s *stmt) Close() error {
	return s.raw.Close()
}

func (s *stmt) NumInput() int {
	return s.raw.NumInput()
}

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), named(args))
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), named(args))
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (res driver.Result, err error) {
	err = s.retry.do(ctx, func() error {
		if e, ok := s.raw.(driver.StmtExecContext); ok {
			res, err = e.ExecContext(ctx, args)
		} else {
			res, err = s.raw.Exec(values(args)) //nolint:staticcheck // fallback for drivers without ExecContext
		}
		return err
	})
	return res, err
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (rows driver.Rows, err error) {
	err = s.retry.do(ctx, func() error {
		if q, ok := s.raw.(driver.StmtQueryContext); ok {
			rows, err = q.QueryContext(ctx, args)
		} else {
			rows, err = s.raw.Query(values(args)) //nolint:staticcheck // fallback for drivers without QueryContext
		}
		return err
	})
	return rows, err
}

func named(args []driver.Value) []driver.NamedValue {
	out := make([]driver.NamedValue, len(args))
	for i, v := range args {
		out[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return out
}

func values(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}
