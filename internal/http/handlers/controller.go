package handlers

import (
	"context"
	"fmt"
	"strings"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/http/middleware"
	"apiscaffold/internal/http/request"
	"apiscaffold/internal/services"
	"apiscaffold/internal/utils"

	"github.com/gin-gonic/gin"
)

// ModelManager is the data access a controller needs for local entities.
type ModelManager interface {
	Model() models.Schema
	List(ctx context.Context, params domain.Params) (domain.ListResult, error)
	Retrieve(ctx context.Context, pk any) (models.Record, error)
	Create(ctx context.Context, params domain.Params, payload models.Record) (models.Record, error)
	Update(ctx context.Context, pk any, params domain.Params, payload models.Record) (int64, error)
	Delete(ctx context.Context, pk any) (int64, error)
	DeleteWhere(ctx context.Context, filter map[string]any) (int64, error)
	SaveOrUpdate(ctx context.Context, params domain.Params, payload models.Record) (models.Record, error)
}

// RemoteLister lists an entity through a remote API.
type RemoteLister interface {
	List(ctx context.Context, cacheKey string, params domain.Params) (domain.ListResult, error)
}

// ServiceFunc implements one service method.
type ServiceFunc func(c *gin.Context, req *domain.RequestData) (Response, error)

// Controller dispatches requests for one entity to its service methods.
type Controller struct {
	Title   string
	Manager ModelManager
	API     RemoteLister
	Export  services.ExportService

	services map[string]ServiceFunc
	fallback ServiceFunc
}

// NewController registers the standard service methods for m.
func NewController(title string, m ModelManager) *Controller {
	ctl := &Controller{Title: title, Manager: m, services: map[string]ServiceFunc{}}
	ctl.Handle(domain.MethodList, ctl.serviceList)
	ctl.Handle(domain.MethodRetrieve, ctl.serviceRetrieve)
	ctl.Handle(domain.MethodCreate, ctl.serviceCreate)
	ctl.Handle(domain.MethodUpdate, ctl.serviceUpdate)
	ctl.Handle(domain.MethodDelete, ctl.serviceDelete)
	ctl.Handle(domain.MethodDestroy, ctl.serviceDelete)
	ctl.Handle(domain.MethodSaveOrUpdate, ctl.serviceSaveOrUpdate)
	ctl.Handle(domain.MethodExport, ctl.serviceExport)
	return ctl
}

// Handle binds fn to method, replacing any previous binding.
func (ctl *Controller) Handle(method string, fn ServiceFunc) *Controller {
	if ctl.services == nil {
		ctl.services = map[string]ServiceFunc{}
	}
	ctl.services[strings.ToLower(method)] = fn
	return ctl
}

// Remove unbinds methods, e.g. to make an entity read-only.
func (ctl *Controller) Remove(methods ...string) *Controller {
	for _, m := range methods {
		delete(ctl.services, strings.ToLower(m))
	}
	return ctl
}

// Fallback handles every method without its own binding.
func (ctl *Controller) Fallback(fn ServiceFunc) *Controller {
	ctl.fallback = fn
	return ctl
}

func (ctl *Controller) resolve(method string) (ServiceFunc, error) {
	if fn, ok := ctl.services[method]; ok {
		return fn, nil
	}
	if ctl.fallback != nil {
		return ctl.fallback, nil
	}
	return nil, domain.ConfigurationError{Msg: fmt.Sprintf("%s has no handler for service method %q", ctl.Title, method)}
}

// Dispatch is the gin handler for every verb of the entity.
func (ctl *Controller) Dispatch(c *gin.Context) {
	req := request.Extract(c)
	utils.LogFields(middleware.GetRequestID(c), ctl.Title, req.ServiceMethod, map[string]any{
		"pk":          req.PK,
		"data_source": req.DataSource,
		"params":      req.ParamCount,
	})

	fn, err := ctl.resolve(req.ServiceMethod)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	resp, err := fn(c, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	writeResponse(c, resp)
}

// Mount registers Dispatch for the collection and item routes of g.
func (ctl *Controller) Mount(g *gin.RouterGroup) {
	for _, path := range []string{"", "/:pk"} {
		g.GET(path, ctl.Dispatch)
		g.POST(path, ctl.Dispatch)
		g.PUT(path, ctl.Dispatch)
		g.PATCH(path, ctl.Dispatch)
		g.DELETE(path, ctl.Dispatch)
	}
}

func (ctl *Controller) manager() (ModelManager, error) {
	if ctl.Manager == nil {
		return nil, domain.ConfigurationError{Msg: ctl.Title + " has no manager"}
	}
	return ctl.Manager, nil
}

func (ctl *Controller) schema() models.Schema {
	if ctl.Manager == nil {
		return models.Schema{}
	}
	return ctl.Manager.Model()
}
