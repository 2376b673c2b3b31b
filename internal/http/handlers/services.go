package handlers

import (
	"fmt"
	"net/http"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func (ctl *Controller) list(c *gin.Context, req *domain.RequestData) (domain.ListResult, error) {
	params := req.AllParams()
	if req.DataSource == domain.DataSourceAPI {
		if ctl.API == nil {
			return domain.ListResult{}, domain.ConfigurationError{Msg: ctl.Title + " has no remote api manager"}
		}
		return ctl.API.List(c.Request.Context(), "", params)
	}
	m, err := ctl.manager()
	if err != nil {
		return domain.ListResult{}, err
	}
	return m.List(c.Request.Context(), params)
}

func (ctl *Controller) serviceList(c *gin.Context, req *domain.RequestData) (Response, error) {
	res, err := ctl.list(c, req)
	if err != nil {
		return Response{}, err
	}
	return listResponse(res, ctl.schema(), req.Fields), nil
}

func (ctl *Controller) serviceRetrieve(c *gin.Context, req *domain.RequestData) (Response, error) {
	m, err := ctl.manager()
	if err != nil {
		return Response{}, err
	}
	rec, err := m.Retrieve(c.Request.Context(), req.PK)
	if err != nil {
		return Response{}, err
	}
	return objectResponse(rec, m.Model(), req.Fields), nil
}

func (ctl *Controller) serviceCreate(c *gin.Context, req *domain.RequestData) (Response, error) {
	m, err := ctl.manager()
	if err != nil {
		return Response{}, err
	}
	ctx := c.Request.Context()
	params := req.AllParams()
	schema := m.Model()

	if items, ok := req.RequestParams[domain.KeyListOfParams].([]any); ok {
		created := make([]models.Record, 0, len(items))
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return Response{}, domain.ValidationError{Field: fmt.Sprintf("%s[%d]", domain.KeyListOfParams, i), Msg: "must be an object"}
			}
			rec, err := m.Create(ctx, params, obj)
			if err != nil {
				return Response{}, err
			}
			created = append(created, schema.Public(rec))
		}
		return Response{
			StatusCode: http.StatusCreated,
			Result:     gin.H{"count": len(created), "data": created},
			Message:    fmt.Sprintf("%d New object(s) created successfully.", len(created)),
		}, nil
	}

	rec, err := m.Create(ctx, params, req.RequestParams.WithoutControlKeys())
	if err != nil {
		return Response{}, err
	}
	return Response{
		StatusCode: http.StatusCreated,
		Result:     Project(schema.Public(rec), ParseFields(req.Fields)),
		Message:    "New object created successfully.",
	}, nil
}

func (ctl *Controller) serviceUpdate(c *gin.Context, req *domain.RequestData) (Response, error) {
	m, err := ctl.manager()
	if err != nil {
		return Response{}, err
	}
	schema := m.Model()
	if req.PK == "" {
		return Response{}, domain.ValidationError{
			Msg:    schema.PrimaryKey() + " is mandatory parameter",
			Fields: map[string]string{schema.PrimaryKey(): schema.PrimaryKey() + " is a mandatory parameter."},
		}
	}

	ctx := c.Request.Context()
	existing, err := m.Retrieve(ctx, req.PK)
	if err != nil {
		return Response{}, err
	}
	if existing == nil {
		return notFound(""), nil
	}

	payload := req.RequestParams.WithoutControlKeys()
	delete(payload, schema.PrimaryKey())
	n, err := m.Update(ctx, req.PK, req.AllParams(), payload)
	if err != nil {
		return Response{}, err
	}
	rec, err := m.Retrieve(ctx, req.PK)
	if err != nil {
		return Response{}, err
	}
	return Response{
		StatusCode: http.StatusOK,
		Result:     Project(schema.Public(rec), ParseFields(req.Fields)),
		Message:    fmt.Sprintf("%d object(s) updated successfully.", n),
	}, nil
}

func (ctl *Controller) serviceDelete(c *gin.Context, req *domain.RequestData) (Response, error) {
	m, err := ctl.manager()
	if err != nil {
		return Response{}, err
	}
	ctx := c.Request.Context()
	if req.PK == "" {
		filter := req.RequestParams.WithoutControlKeys()
		if len(filter) == 0 {
			return notFound("No data found for delete"), nil
		}
		n, err := m.DeleteWhere(ctx, filter)
		if err != nil {
			return Response{}, err
		}
		if n == 0 {
			return notFound("No data found for delete"), nil
		}
		return Response{
			StatusCode: http.StatusOK,
			Result:     gin.H{"deleted": n},
			Message:    fmt.Sprintf("%d object(s) deleted successfully.", n),
		}, nil
	}

	rec, err := m.Retrieve(ctx, req.PK)
	if err != nil {
		return Response{}, err
	}
	if rec == nil {
		return notFound("No data found for delete"), nil
	}
	n, err := m.Delete(ctx, req.PK)
	if err != nil {
		return Response{}, err
	}
	if n == 0 {
		return notFound("No data found for delete"), nil
	}
	return Response{
		StatusCode: http.StatusOK,
		Result:     m.Model().Public(rec),
		Message:    fmt.Sprintf("%d object(s) deleted successfully.", n),
	}, nil
}

func (ctl *Controller) serviceSaveOrUpdate(c *gin.Context, req *domain.RequestData) (Response, error) {
	m, err := ctl.manager()
	if err != nil {
		return Response{}, err
	}
	schema := m.Model()
	payload := req.RequestParams.WithoutControlKeys()
	if req.PK != "" {
		payload[schema.PrimaryKey()] = req.PK
	}
	rec, err := m.SaveOrUpdate(c.Request.Context(), req.AllParams(), payload)
	if err != nil {
		return Response{}, err
	}
	return Response{
		StatusCode: http.StatusOK,
		Result:     Project(schema.Public(rec), ParseFields(req.Fields)),
		Message:    "Object saved successfully.",
	}, nil
}

func (ctl *Controller) serviceExport(c *gin.Context, req *domain.RequestData) (Response, error) {
	res, err := ctl.list(c, req)
	if err != nil {
		return Response{}, err
	}
	schema := ctl.schema()
	specs := ParseFields(req.Fields)
	rows := make([]models.Record, 0, len(res.Data))
	for _, rec := range res.Data {
		rows = append(rows, Project(schema.Public(rec), specs))
	}

	exp := ctl.Export
	exp.RequestID = middleware.GetRequestID(c)
	body, name, err := exp.RenderPDF(ctl.Title, FieldNames(specs), rows)
	if err != nil {
		return Response{}, domain.InternalError{Msg: "export failed", Err: err}
	}
	return Response{File: &File{Name: name, ContentType: "application/pdf", Body: body}}, nil
}
