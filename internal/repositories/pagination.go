package repositories

import (
	"context"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"
)

const DefaultPageSize = 10

// Collection is anything that can be counted and windowed: a QuerySet or a RawQuerySet.
type Collection interface {
	Count(ctx context.Context) (int, error)
	Slice(start, stop int) (Collection, error)
	Fetch(ctx context.Context) ([]models.Record, error)
}

// Paginate returns one page when the caller asked for paging (page or page_size
// present), the whole collection otherwise.
func Paginate(ctx context.Context, coll Collection, params domain.Params) (domain.ListResult, error) {
	_, hasPage := params[domain.KeyPage]
	_, hasSize := params[domain.KeyPageSize]

	if !hasPage && !hasSize {
		data, err := coll.Fetch(ctx)
		if err != nil {
			return domain.ListResult{}, err
		}
		return domain.ListResult{Data: data, Count: len(data), Pagination: false}, nil
	}

	size, err := positiveParam(params, domain.KeyPageSize, DefaultPageSize)
	if err != nil {
		return domain.ListResult{}, err
	}
	page, err := positiveParam(params, domain.KeyPage, 1)
	if err != nil {
		return domain.ListResult{}, err
	}

	total, err := coll.Count(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}

	numPages := (total + size - 1) / size
	if numPages < 1 {
		numPages = 1
	}

	data := []models.Record{}
	if page <= numPages {
		window, err := coll.Slice((page-1)*size, page*size)
		if err != nil {
			return domain.ListResult{}, err
		}
		if data, err = window.Fetch(ctx); err != nil {
			return domain.ListResult{}, err
		}
	}

	info := &domain.PageInfo{
		NumPages:     numPages,
		StartCount:   size*(page-1) + 1,
		EndCount:     size*(page-1) + len(data),
		CurrentPage:  page,
		ItemsPerPage: size,
		TotalCount:   total,
		HasNext:      page*size < total,
		HasPrevious:  page > 1,
	}

	return domain.ListResult{Data: data, Count: total, Pagination: true, PageInfo: info}, nil
}

func positiveParam(params domain.Params, key string, def int) (int, error) {
	raw := utils.ToString(params[key])
	if raw == "" {
		return def, nil
	}
	n, err := utils.ToInt64(raw)
	if err != nil || n < 1 {
		return 0, domain.ValidationError{Field: key, Msg: "must be a positive integer"}
	}
	return int(n), nil
}
