package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	intdb "apiscaffold/internal/db"
	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
)

// QuerySet is an immutable SELECT over one entity table. Every builder method
// returns a copy, so a QuerySet can be shared between filters safely.
type QuerySet struct {
	db     intdb.Executor
	schema models.Schema
	where  []string
	args   []any
	order  []string
	limit  int
	offset int
}

func NewQuerySet(db intdb.Executor, schema models.Schema) *QuerySet {
	return &QuerySet{db: db, schema: schema, limit: -1}
}

func (q *QuerySet) clone() *QuerySet {
	c := *q
	c.where = append([]string(nil), q.where...)
	c.args = append([]any(nil), q.args...)
	c.order = append([]string(nil), q.order...)
	return &c
}

func (q *QuerySet) Schema() models.Schema { return q.schema }

// Where adds a raw condition. Conditions are ANDed.
func (q *QuerySet) Where(cond string, args ...any) *QuerySet {
	c := q.clone()
	c.where = append(c.where, "("+cond+")")
	c.args = append(c.args, args...)
	return c
}

// Eq filters column = value, or column IN (...) for list values.
func (q *QuerySet) Eq(column string, value any) (*QuerySet, error) {
	if !q.schema.HasColumn(column) {
		return nil, domain.ValidationError{Field: column, Msg: "unknown field"}
	}
	switch vs := value.(type) {
	case []any:
		if len(vs) == 0 {
			return q.Where("1 = 0"), nil
		}
		return q.Where(fmt.Sprintf("%s IN (%s)", column, intdb.Placeholders(len(vs))), vs...), nil
	case []string:
		args := make([]any, len(vs))
		for i, v := range vs {
			args[i] = v
		}
		return q.Eq(column, args)
	case []int64:
		args := make([]any, len(vs))
		for i, v := range vs {
			args[i] = v
		}
		return q.Eq(column, args)
	case nil:
		return q.Where(column + " IS NULL"), nil
	}
	return q.Where(column+" = ?", value), nil
}

// Match applies Eq for every key of filter, in key order.
func (q *QuerySet) Match(filter map[string]any) (*QuerySet, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := q
	for _, k := range keys {
		next, err := out.Eq(k, filter[k])
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// OrderBy appends sort keys; earlier keys take precedence. "-field" sorts descending.
func (q *QuerySet) OrderBy(fields ...string) (*QuerySet, error) {
	c := q.clone()
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		dir := "ASC"
		col := f
		if strings.HasPrefix(f, "-") {
			dir = "DESC"
			col = strings.TrimPrefix(f, "-")
		}
		if !q.schema.HasColumn(col) {
			return nil, domain.ValidationError{Field: domain.KeyOrderBy, Msg: fmt.Sprintf("cannot sort by %q", col)}
		}
		c.order = append(c.order, col+" "+dir)
	}
	return c, nil
}

func (q *QuerySet) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

func (q *QuerySet) orderClause() string {
	order := q.order
	if len(order) == 0 {
		def := q.schema.DefaultOrder
		if def == "" {
			def = q.schema.PrimaryKey()
		}
		if strings.HasPrefix(def, "-") {
			order = []string{strings.TrimPrefix(def, "-") + " DESC"}
		} else {
			order = []string{def + " ASC"}
		}
	}
	return " ORDER BY " + strings.Join(order, ", ")
}

// SQL renders the SELECT with its arguments.
func (q *QuerySet) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.schema.Columns(), ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.schema.Table)
	b.WriteString(q.whereClause())
	b.WriteString(q.orderClause())
	if q.limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.limit))
		if q.offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(q.offset))
		}
	}
	return b.String(), append([]any(nil), q.args...)
}

func (q *QuerySet) CountSQL() (string, []any) {
	return "SELECT COUNT(*) FROM " + q.schema.Table + q.whereClause(), append([]any(nil), q.args...)
}

func (q *QuerySet) Count(ctx context.Context) (int, error) {
	query, args := q.CountSQL()
	var n int
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (q *QuerySet) Slice(start, stop int) (Collection, error) {
	if start < 0 || stop < 0 {
		return nil, domain.ValidationError{Msg: "negative indexing is not supported"}
	}
	if stop < start {
		stop = start
	}
	c := q.clone()
	c.offset = q.offset + start
	c.limit = stop - start
	if q.limit >= 0 && c.limit > q.limit-start {
		c.limit = max(q.limit-start, 0)
	}
	return c, nil
}

func (q *QuerySet) Fetch(ctx context.Context) ([]models.Record, error) {
	query, args := q.SQL()
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return intdb.ScanRecords(rows)
}

// First returns the first row, or nil when there is none.
func (q *QuerySet) First(ctx context.Context) (models.Record, error) {
	c, _ := q.Slice(0, 1)
	recs, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}
