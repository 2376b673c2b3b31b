package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	intdb "apiscaffold/internal/db"
	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"

	"github.com/go-playground/validator/v10"
)

// CreateHook may rewrite the payload right before it is inserted.
type CreateHook func(ctx context.Context, params domain.Params, payload models.Record) (models.Record, error)

// UpdateHook may rewrite the payload right before the UPDATE runs.
type UpdateHook func(ctx context.Context, pk any, params domain.Params, payload models.Record) (models.Record, error)

// Manager is the generic data-access object for one entity table.
type Manager struct {
	Schema   models.Schema
	DB       intdb.Executor
	Registry *Registry

	Filters        FilterSet
	StartFiltering FilteringHook
	EndFiltering   FilteringHook
	BeforeCreate   CreateHook
	BeforeUpdate   UpdateHook

	// Raw, when set, may take over listing with a hand-written query.
	Raw RawQuerySource

	scratch scratchStore

	validateOnce sync.Once
	validate     *validator.Validate
}

func NewManager(db intdb.Executor, schema models.Schema) *Manager {
	return &Manager{Schema: schema, DB: db, Filters: FilterSet{}}
}

func (m *Manager) Name() string { return m.Schema.Name }

// Model exposes the entity schema to handlers.
func (m *Manager) Model() models.Schema { return m.Schema }

func (m *Manager) QuerySet() *QuerySet {
	return NewQuerySet(m.DB, m.Schema)
}

// DiscoverColumns drops schema fields the live table does not have.
func (m *Manager) DiscoverColumns(ctx context.Context) {
	if !intdb.HasTable(ctx, m.DB, m.Schema.Table) {
		utils.LogEvent("", "repository", "discover_columns", fmt.Sprintf("table %s not found", m.Schema.Table))
		return
	}
	kept := make([]models.Field, 0, len(m.Schema.Fields))
	for _, f := range m.Schema.Fields {
		if f.Name == m.Schema.PrimaryKey() || intdb.HasColumn(ctx, m.DB, m.Schema.Table, f.Name) {
			kept = append(kept, f)
			continue
		}
		utils.LogEvent("", "repository", "discover_columns", fmt.Sprintf("%s.%s missing, ignored", m.Schema.Table, f.Name))
	}
	m.Schema.Fields = kept
}

// Retrieve returns the row with primary key pk, or nil.
func (m *Manager) Retrieve(ctx context.Context, pk any) (models.Record, error) {
	if utils.ToString(pk) == "" {
		return nil, nil
	}
	qs, err := m.QuerySet().Eq(m.Schema.PrimaryKey(), pk)
	if err != nil {
		return nil, err
	}
	return qs.First(ctx)
}

// RetrieveBy returns exactly one row matching filter.
func (m *Manager) RetrieveBy(ctx context.Context, filter map[string]any) (models.Record, error) {
	qs, err := m.QuerySet().Match(filter)
	if err != nil {
		return nil, err
	}
	window, _ := qs.Slice(0, 2)
	rows, err := window.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, domain.NotFoundError{Resource: strings.ToLower(m.Schema.Name)}
	case 1:
		return rows[0], nil
	default:
		return nil, domain.ValidationError{Msg: fmt.Sprintf("more than one %s matched", strings.ToLower(m.Schema.Name))}
	}
}

func (m *Manager) Fetch(ctx context.Context, filter map[string]any) ([]models.Record, error) {
	qs, err := m.QuerySet().Match(filter)
	if err != nil {
		return nil, err
	}
	return qs.Fetch(ctx)
}

func (m *Manager) Exists(ctx context.Context, filter map[string]any) (bool, error) {
	qs, err := m.QuerySet().Match(filter)
	if err != nil {
		return false, err
	}
	n, err := qs.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List filters, sorts and paginates. A raw query source takes over when it opts in.
func (m *Manager) List(ctx context.Context, params domain.Params) (domain.ListResult, error) {
	params = params.Clone()

	if m.Raw != nil {
		rq, ok, err := m.Raw.RawQuery(ctx, params)
		if err != nil {
			return domain.ListResult{}, err
		}
		if ok {
			return Paginate(ctx, NewRawQuerySet(m.DB, rq), params)
		}
	}

	qs, err := m.ApplyFilters(ctx, m.QuerySet(), params)
	if err != nil {
		return domain.ListResult{}, err
	}
	return Paginate(ctx, qs, params)
}

// Create inserts payload. Nested objects are created first by their own managers,
// then the create hook runs.
func (m *Manager) Create(ctx context.Context, params domain.Params, payload models.Record) (models.Record, error) {
	data, err := m.resolveNested(ctx, params, payload)
	if err != nil {
		return nil, err
	}
	if m.BeforeCreate != nil {
		if data, err = m.BeforeCreate(ctx, params, data); err != nil {
			return nil, err
		}
	}

	row := m.writableColumns(data)
	if err := m.validateRow(row, false); err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, domain.ValidationError{Msg: "nothing to create"}
	}
	if err := m.checkUnique(ctx, row); err != nil {
		return nil, err
	}

	cols := sortedKeys(row)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = row[c]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", m.Schema.Table, strings.Join(cols, ", "), intdb.Placeholders(len(cols)))
	res, err := m.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		row[m.Schema.PrimaryKey()] = id
	}
	return row, nil
}

// Update applies the payload to the row with primary key pk and returns the rows affected.
func (m *Manager) Update(ctx context.Context, pk any, params domain.Params, payload models.Record) (int64, error) {
	data, err := m.resolveNested(ctx, params, payload)
	if err != nil {
		return 0, err
	}
	if m.BeforeUpdate != nil {
		if data, err = m.BeforeUpdate(ctx, pk, params, data); err != nil {
			return 0, err
		}
	}

	row := m.writableColumns(data)
	if err := m.validateRow(row, true); err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, nil
	}

	cols := sortedKeys(row)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
		args = append(args, row[c])
	}
	args = append(args, pk)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", m.Schema.Table, strings.Join(sets, ", "), m.Schema.PrimaryKey())
	res, err := m.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveOrUpdate updates when payload carries a primary key and creates otherwise.
func (m *Manager) SaveOrUpdate(ctx context.Context, params domain.Params, payload models.Record) (models.Record, error) {
	pk := payload[m.Schema.PrimaryKey()]
	if utils.ToString(pk) == "" {
		return m.Create(ctx, params, payload)
	}
	if _, err := m.Update(ctx, pk, params, payload); err != nil {
		return nil, err
	}
	rec, err := m.Retrieve(ctx, pk)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.NotFoundError{Resource: strings.ToLower(m.Schema.Name)}
	}
	return rec, nil
}

// Delete removes the row with primary key pk. Deleting twice yields 0 the second time.
func (m *Manager) Delete(ctx context.Context, pk any) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", m.Schema.Table, m.Schema.PrimaryKey())
	res, err := m.DB.ExecContext(ctx, query, pk)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// checkUnique rejects a row whose unique columns already exist in the table.
func (m *Manager) checkUnique(ctx context.Context, row models.Record) error {
	for _, col := range m.Schema.Unique {
		v, ok := row[col]
		if !ok || utils.ToString(v) == "" {
			continue
		}
		found, err := m.Exists(ctx, map[string]any{col: v})
		if err != nil {
			return err
		}
		if found {
			return domain.ConflictError{
				Resource: strings.ToLower(m.Schema.Name),
				Msg:      fmt.Sprintf("%s %q already exists", col, utils.ToString(v)),
			}
		}
	}
	return nil
}

// DeleteWhere removes every row matching filter. An empty filter is rejected.
func (m *Manager) DeleteWhere(ctx context.Context, filter map[string]any) (int64, error) {
	if len(filter) == 0 {
		return 0, domain.ValidationError{Msg: "delete requires at least one condition"}
	}
	qs, err := m.QuerySet().Match(filter)
	if err != nil {
		return 0, err
	}
	res, err := m.DB.ExecContext(ctx, "DELETE FROM "+m.Schema.Table+qs.whereClause(), qs.args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// resolveNested saves declared nested objects through their managers and swaps
// them for foreign keys. A nested object carrying a primary key is updated.
func (m *Manager) resolveNested(ctx context.Context, params domain.Params, payload models.Record) (models.Record, error) {
	data := make(models.Record, len(payload))
	for k, v := range payload {
		if domain.IsControlKey(k) || k == domain.KeyListOfParams {
			continue
		}
		data[k] = v
	}

	for _, key := range sortedKeys(data) {
		value := data[key]
		nf, declared := m.Schema.NestedFor(key)
		obj, isMap := value.(map[string]any)
		if !declared {
			if isMap {
				return nil, domain.ValidationError{Field: key, Msg: "nested objects are not accepted for this field"}
			}
			continue
		}
		delete(data, key)
		if !isMap {
			data[nf.Column] = value
			continue
		}
		if m.Registry == nil {
			return nil, domain.ConfigurationError{Msg: fmt.Sprintf("no registry to resolve nested %q", key)}
		}
		nested, err := m.Registry.Get(nf.Manager)
		if err != nil {
			return nil, err
		}
		saved, err := nested.SaveOrUpdate(ctx, params, obj)
		if err != nil {
			var ve domain.ValidationError
			if errors.As(err, &ve) {
				return nil, prefixValidation(key, ve)
			}
			return nil, err
		}
		data[nf.Column] = saved[nested.Schema.PrimaryKey()]
	}
	return data, nil
}

func (m *Manager) writableColumns(data models.Record) models.Record {
	row := models.Record{}
	for _, f := range m.Schema.Fields {
		if f.ReadOnly || f.Name == m.Schema.PrimaryKey() {
			continue
		}
		if v, ok := data[f.Name]; ok {
			row[f.Name] = v
		}
	}
	return row
}

func (m *Manager) validator() *validator.Validate {
	m.validateOnce.Do(func() {
		m.validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return m.validate
}

// validateRow checks field rules. partial skips fields absent from row.
func (m *Manager) validateRow(row models.Record, partial bool) error {
	failures := map[string]string{}
	for _, f := range m.Schema.Fields {
		if f.Validate == "" || f.ReadOnly {
			continue
		}
		v, present := row[f.Name]
		if !present || v == nil {
			if partial || !strings.HasPrefix(f.Validate, "required") {
				continue
			}
			failures[f.Name] = fmt.Sprintf("%s is a mandatory parameter.", f.Name)
			continue
		}
		sv, ok := ruleValue(v)
		if !ok {
			failures[f.Name] = fmt.Sprintf("%s must be a string.", f.Name)
			continue
		}
		if err := m.validator().Var(sv, f.Validate); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				failures[f.Name] = describeRule(f.Name, verrs[0])
				continue
			}
			failures[f.Name] = err.Error()
		}
	}
	if len(failures) > 0 {
		return domain.ValidationError{Fields: failures}
	}
	return nil
}

// ruleValue gives the string form checked by field rules. Numbers are accepted
// in their decimal form; bools and composite values are not.
func ruleValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number, float32, float64, int, int32, int64, uint, uint32, uint64:
		return utils.ToString(t), true
	}
	return "", false
}

func describeRule(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a mandatory parameter.", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s long.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", field)
	default:
		return fmt.Sprintf("%s failed %s validation.", field, fe.Tag())
	}
}

func prefixValidation(prefix string, ve domain.ValidationError) domain.ValidationError {
	if len(ve.Fields) == 0 {
		if ve.Field != "" {
			ve.Field = prefix + "." + ve.Field
		} else {
			ve.Field = prefix
		}
		return ve
	}
	fields := make(map[string]string, len(ve.Fields))
	for k, v := range ve.Fields {
		fields[prefix+"."+k] = v
	}
	ve.Fields = fields
	return ve
}

func sortedKeys(r models.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
