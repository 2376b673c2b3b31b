package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	intdb "apiscaffold/internal/db"
	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
)

// RawQuery is a hand-written SELECT an entity manager can supply instead of
// the standard QuerySet.
type RawQuery struct {
	SQL      string
	Args     []any
	CountSQL string
	Columns  []string
}

// RawQuerySource is implemented by managers that list through raw SQL.
// ok=false means the standard query path should be used for this request.
type RawQuerySource interface {
	RawQuery(ctx context.Context, params domain.Params) (q RawQuery, ok bool, err error)
}

// RawQuerySet pages a raw query with LIMIT/OFFSET. The row count and the fetched
// rows are memoized; a RawQuerySet is not safe for concurrent use.
type RawQuerySet struct {
	db       intdb.Executor
	base     string
	countSQL string
	args     []any

	sliced bool
	start  int
	stop   int

	count   *int
	rows    []models.Record
	fetched bool
}

// NewRawQuerySet wraps rq as SELECT cols FROM (rq) AS t ORDER BY id DESC.
func NewRawQuerySet(db intdb.Executor, rq RawQuery) *RawQuerySet {
	cols := "*"
	if len(rq.Columns) > 0 {
		cols = strings.Join(rq.Columns, ", ")
	}
	src := strings.TrimSpace(rq.SQL)
	countSQL := rq.CountSQL
	if countSQL == "" {
		countSQL = fmt.Sprintf("SELECT count(*) FROM (%s) AS t", src)
	}
	return &RawQuerySet{
		db:       db,
		base:     fmt.Sprintf("SELECT %s FROM (%s) AS t ORDER BY id DESC", cols, src),
		countSQL: countSQL,
		args:     rq.Args,
	}
}

// SQL is the statement Fetch will run.
func (r *RawQuerySet) SQL() string {
	if !r.sliced {
		return r.base
	}
	s := r.base + " LIMIT " + strconv.Itoa(r.stop-r.start)
	if r.start > 0 {
		s += " OFFSET " + strconv.Itoa(r.start)
	}
	return s
}

func (r *RawQuerySet) Count(ctx context.Context) (int, error) {
	if r.count != nil {
		return *r.count, nil
	}
	var n int
	if err := r.db.QueryRowContext(ctx, r.countSQL, r.args...).Scan(&n); err != nil {
		return 0, err
	}
	r.count = &n
	return n, nil
}

// Slice narrows the window to [start, stop) relative to the current window.
func (r *RawQuerySet) Slice(start, stop int) (Collection, error) {
	if start < 0 || stop < 0 {
		return nil, domain.ValidationError{Msg: "negative indexing is not supported"}
	}
	if stop < start {
		stop = start
	}
	c := &RawQuerySet{
		db:       r.db,
		base:     r.base,
		countSQL: r.countSQL,
		args:     r.args,
		count:    r.count,
		sliced:   true,
		start:    r.start + start,
		stop:     r.start + stop,
	}
	if r.sliced && c.stop > r.stop {
		c.stop = r.stop
	}
	if c.start > c.stop {
		c.start = c.stop
	}
	return c, nil
}

// Index returns the k-th row of the current window.
func (r *RawQuerySet) Index(ctx context.Context, k int) (models.Record, error) {
	c, err := r.Slice(k, k+1)
	if err != nil {
		return nil, err
	}
	rows, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundError{Resource: fmt.Sprintf("row %d", k)}
	}
	return rows[0], nil
}

func (r *RawQuerySet) Fetch(ctx context.Context) ([]models.Record, error) {
	if r.fetched {
		return r.rows, nil
	}
	rows, err := r.db.QueryContext(ctx, r.SQL(), r.args...)
	if err != nil {
		return nil, err
	}
	recs, err := intdb.ScanRecords(rows)
	if err != nil {
		return nil, err
	}
	r.rows = recs
	r.fetched = true
	return recs, nil
}
