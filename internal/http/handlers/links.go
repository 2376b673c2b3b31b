package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/repositories"
	"apiscaffold/internal/utils"

	"github.com/gin-gonic/gin"
)

// LinkHandler exposes one many-to-many link table under its left entity.
type LinkHandler struct {
	Left  ModelManager
	Links *repositories.LinkManager
}

type saveLinksRequest struct {
	IDs      []int64        `json:"ids" binding:"required"`
	Defaults map[string]any `json:"defaults"`
}

func (h LinkHandler) leftID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("pk"), 10, 64)
	if err != nil || id <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: "id", Msg: "must be a positive integer"})
		return 0, false
	}
	rec, err := h.Left.Retrieve(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return 0, false
	}
	if rec == nil {
		writeResponse(c, notFound(""))
		return 0, false
	}
	return id, true
}

// List handles GET /:pk/<links>.
func (h LinkHandler) List(c *gin.Context) {
	id, ok := h.leftID(c)
	if !ok {
		return
	}
	links, err := h.Links.Links(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	writeResponse(c, listResponse(domain.ListResult{Data: links, Count: len(links)}, models.Schema{}, nil))
}

// Save handles PUT /:pk/<links>: the link set becomes exactly the given ids.
func (h LinkHandler) Save(c *gin.Context) {
	var body saveLinksRequest
	if !BindJSONOrError(c, &body) {
		return
	}
	id, ok := h.leftID(c)
	if !ok {
		return
	}
	res, err := h.Links.SaveLinkTable(c.Request.Context(), id, body.IDs, body.Defaults)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	writeResponse(c, Response{
		StatusCode: http.StatusOK,
		Result:     res,
		Message:    fmt.Sprintf("Links saved: %d new, %d deleted, %d unchanged.", res.New, res.Deleted, res.Unchanged),
	})
}

// Delete handles DELETE /:pk/<links>?ids=1,2.
func (h LinkHandler) Delete(c *gin.Context) {
	id, ok := h.leftID(c)
	if !ok {
		return
	}
	ids, err := utils.ParseIDList(c.Query("ids"))
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: "ids", Msg: err.Error(), Err: err})
		return
	}
	n, err := h.Links.DeleteLinks(c.Request.Context(), []int64{id}, ids)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if n == 0 {
		writeResponse(c, notFound("No data found for delete"))
		return
	}
	writeResponse(c, Response{
		StatusCode: http.StatusOK,
		Result:     gin.H{"deleted": n},
		Message:    fmt.Sprintf("%d object(s) deleted successfully.", n),
	})
}
