package repositories

import (
	"context"
	"sort"
	"sync"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/utils"

	"github.com/google/uuid"
)

// FilterFunc narrows qs for one request parameter. Returning a nil QuerySet
// keeps the queryset built so far.
type FilterFunc func(ctx context.Context, qs *QuerySet, value any, params domain.Params) (*QuerySet, error)

// FilterSet is the allow-list of filterable parameters for an entity.
type FilterSet map[string]FilterFunc

// FilteringHook runs before or after the per-parameter filters. scratch lives
// for the current request only.
type FilteringHook func(ctx context.Context, qs *QuerySet, params domain.Params, scratch map[string]any) (*QuerySet, error)

type scratchStore struct {
	mu   sync.Mutex
	data map[string]map[string]any
}

func (s *scratchStore) open(token string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = map[string]map[string]any{}
	}
	m := map[string]any{}
	s.data[token] = m
	return m
}

func (s *scratchStore) get(token string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[token]
}

func (s *scratchStore) close(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, token)
}

func (s *scratchStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// ApplyFilters runs the filter pipeline: start hook, one allow-listed filter per
// parameter, end hook, then order_by. params must be owned by the caller; the
// session token is written into it. Scratch state is dropped on every path.
func (m *Manager) ApplyFilters(ctx context.Context, qs *QuerySet, params domain.Params) (*QuerySet, error) {
	token := uuid.NewString()
	params[domain.KeyFilterSessionKey] = token
	scratch := m.scratch.open(token)
	defer m.scratch.close(token)

	var err error
	if m.StartFiltering != nil {
		if qs, err = runHook(ctx, m.StartFiltering, qs, params, scratch); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if domain.IsControlKey(key) {
			continue
		}
		fn, ok := m.Filters[key]
		if !ok {
			continue
		}
		next, err := fn(ctx, qs, params[key], params)
		if err != nil {
			return nil, err
		}
		if next != nil {
			qs = next
		}
	}

	if m.EndFiltering != nil {
		if qs, err = runHook(ctx, m.EndFiltering, qs, params, scratch); err != nil {
			return nil, err
		}
	}

	if order := utils.ToString(params[domain.KeyOrderBy]); order != "" {
		if qs, err = qs.OrderBy(utils.SplitCSV(order)...); err != nil {
			return nil, err
		}
	}
	return qs, nil
}

func runHook(ctx context.Context, hook FilteringHook, qs *QuerySet, params domain.Params, scratch map[string]any) (*QuerySet, error) {
	next, err := hook(ctx, qs, params, scratch)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return qs, nil
	}
	return next, nil
}

// Scratch returns the per-request scratch map for the filtering pass in progress.
func (m *Manager) Scratch(params domain.Params) map[string]any {
	return m.scratch.get(utils.ToString(params[domain.KeyFilterSessionKey]))
}

// EqualFilter matches column against the value (CSV lists become IN).
func EqualFilter(column string) FilterFunc {
	return func(_ context.Context, qs *QuerySet, value any, _ domain.Params) (*QuerySet, error) {
		s := utils.ToString(value)
		if s == "" {
			return nil, nil
		}
		if parts := utils.SplitCSV(s); len(parts) > 1 {
			return qs.Eq(column, parts)
		}
		return qs.Eq(column, s)
	}
}

// ContainsFilter matches column LIKE %value%.
func ContainsFilter(column string) FilterFunc {
	return func(_ context.Context, qs *QuerySet, value any, _ domain.Params) (*QuerySet, error) {
		s := utils.ToString(value)
		if s == "" {
			return nil, nil
		}
		return qs.Where(column+" LIKE ?", "%"+s+"%"), nil
	}
}

// BooleanFilter coerces the value with ToBoolean before matching.
func BooleanFilter(column string) FilterFunc {
	return func(_ context.Context, qs *QuerySet, value any, _ domain.Params) (*QuerySet, error) {
		if utils.ToString(value) == "" {
			return nil, nil
		}
		return qs.Eq(column, utils.IsTruthy(value))
	}
}

// DateRangeFilter accepts "MM/DD/YYYY - MM/DD/YYYY" and matches whole days.
func DateRangeFilter(column string) FilterFunc {
	return func(_ context.Context, qs *QuerySet, value any, _ domain.Params) (*QuerySet, error) {
		s := utils.ToString(value)
		if s == "" {
			return nil, nil
		}
		r, err := utils.SplitDateRange(s)
		if err != nil {
			return nil, domain.ValidationError{Field: column, Msg: err.Error(), Err: err}
		}
		return qs.Where("DATE("+column+") BETWEEN ? AND ?", r[0], r[1]), nil
	}
}
