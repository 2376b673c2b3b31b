package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intdb "apiscaffold/internal/db"
	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"
)

// LinkManager maintains a many-to-many link table.
type LinkManager struct {
	Schema models.LinkSchema
	DB     intdb.Executor
}

func NewLinkManager(db intdb.Executor, schema models.LinkSchema) *LinkManager {
	return &LinkManager{Schema: schema, DB: db}
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Links returns the link rows for one left-side id.
func (l *LinkManager) Links(ctx context.Context, leftID int64) ([]models.Record, error) {
	return l.links(ctx, l.DB, leftID)
}

func (l *LinkManager) links(ctx context.Context, q intdb.Executor, leftID int64) ([]models.Record, error) {
	s := l.Schema
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s = ? ORDER BY %s",
		s.PrimaryKey(), s.LeftColumn, s.RightColumn, s.Table, s.LeftColumn, s.PrimaryKey())
	rows, err := q.QueryContext(ctx, query, leftID)
	if err != nil {
		return nil, err
	}
	return intdb.ScanRecords(rows)
}

// SaveLinkTable makes the links of leftID exactly rightIDs: stale rows are deleted,
// missing ones inserted with defaults, and matching rows left alone.
func (l *LinkManager) SaveLinkTable(ctx context.Context, leftID int64, rightIDs []int64, defaults models.Record) (models.LinkResult, error) {
	var res models.LinkResult
	if err := l.checkDefaults(defaults); err != nil {
		return res, err
	}

	q := l.DB
	var tx *sql.Tx
	if b, ok := l.DB.(txBeginner); ok {
		var err error
		if tx, err = b.BeginTx(ctx, nil); err != nil {
			return res, err
		}
		defer func() { _ = tx.Rollback() }()
		q = tx
	}

	existing, err := l.links(ctx, q, leftID)
	if err != nil {
		return res, err
	}

	desired := map[int64]bool{}
	order := []int64{}
	for _, id := range rightIDs {
		if !desired[id] {
			desired[id] = true
			order = append(order, id)
		}
	}

	present := map[int64]bool{}
	stale := []any{}
	for _, row := range existing {
		right, err := utils.ToInt64(row[l.Schema.RightColumn])
		if err != nil {
			return res, fmt.Errorf("link %v: %w", row[l.Schema.PrimaryKey()], err)
		}
		if desired[right] && !present[right] {
			present[right] = true
			res.Unchanged++
			continue
		}
		stale = append(stale, row[l.Schema.PrimaryKey()])
	}

	if len(stale) > 0 {
		query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", l.Schema.Table, l.Schema.PrimaryKey(), intdb.Placeholders(len(stale)))
		if _, err := q.ExecContext(ctx, query, stale...); err != nil {
			return res, err
		}
		res.Deleted = len(stale)
	}

	for _, right := range order {
		if present[right] {
			continue
		}
		row := models.Record{}
		for k, v := range defaults {
			row[k] = v
		}
		row[l.Schema.LeftColumn] = leftID
		row[l.Schema.RightColumn] = right

		cols := sortedKeys(row)
		args := make([]any, len(cols))
		for i, c := range cols {
			args[i] = row[c]
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", l.Schema.Table, strings.Join(cols, ", "), intdb.Placeholders(len(cols)))
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return res, err
		}
		res.New++
	}

	if res.Links, err = l.links(ctx, q, leftID); err != nil {
		return res, err
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (l *LinkManager) checkDefaults(defaults models.Record) error {
	bad := map[string]string{}
	for k := range defaults {
		if !l.Schema.AllowsExtra(k) {
			bad[k] = fmt.Sprintf("%s is not a writable column of %s.", k, l.Schema.Table)
		}
	}
	if len(bad) > 0 {
		return domain.ValidationError{Field: "defaults", Msg: "unknown link columns", Fields: bad}
	}
	return nil
}

// DeleteLinks removes the rows linking any of leftIDs to any of rightIDs.
func (l *LinkManager) DeleteLinks(ctx context.Context, leftIDs, rightIDs []int64) (int64, error) {
	if len(leftIDs) == 0 || len(rightIDs) == 0 {
		return 0, domain.ValidationError{Msg: "left and right ids are required"}
	}
	args := make([]any, 0, len(leftIDs)+len(rightIDs))
	for _, id := range leftIDs {
		args = append(args, id)
	}
	for _, id := range rightIDs {
		args = append(args, id)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s) AND %s IN (%s)",
		l.Schema.Table, l.Schema.LeftColumn, intdb.Placeholders(len(leftIDs)), l.Schema.RightColumn, intdb.Placeholders(len(rightIDs)))
	res, err := l.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FilterLeftByRight narrows a left-entity listing to rows linked to the given
// right ids (CSV or list). pkColumn is the left entity's primary key.
func (l *LinkManager) FilterLeftByRight(pkColumn string) FilterFunc {
	return l.subqueryFilter(pkColumn, l.Schema.LeftColumn, l.Schema.RightColumn)
}

// FilterRightByLeft is the mirror of FilterLeftByRight for the right entity.
func (l *LinkManager) FilterRightByLeft(pkColumn string) FilterFunc {
	return l.subqueryFilter(pkColumn, l.Schema.RightColumn, l.Schema.LeftColumn)
}

func (l *LinkManager) subqueryFilter(pkColumn, selectColumn, matchColumn string) FilterFunc {
	return func(_ context.Context, qs *QuerySet, value any, _ domain.Params) (*QuerySet, error) {
		if utils.ToString(value) == "" {
			return nil, nil
		}
		ids, err := utils.ParseIDList(value)
		if err != nil {
			return nil, domain.ValidationError{Field: matchColumn, Msg: err.Error(), Err: err}
		}
		if len(ids) == 0 {
			return nil, nil
		}
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		cond := fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s IN (%s))",
			pkColumn, selectColumn, l.Schema.Table, matchColumn, intdb.Placeholders(len(ids)))
		return qs.Where(cond, args...), nil
	}
}
