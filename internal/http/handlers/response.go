package handlers

import (
	"fmt"
	"net/http"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every service-method response.
type Envelope struct {
	Status     bool  `json:"status"`
	StatusCode int   `json:"status_code"`
	Data       gin.H `json:"data"`
	Errors     any   `json:"errors"`
}

// File is a binary payload returned instead of an envelope.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Response is what a service method hands back to the dispatcher.
type Response struct {
	StatusCode   int
	Result       any
	ResponseCode int
	Message      string
	Other        gin.H
	Errors       any
	File         *File
}

func isSuccess(code int) bool {
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return true
	}
	return false
}

// wrap builds the envelope: result, response code and message, then the extra info.
func wrap(resp Response) Envelope {
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if resp.ResponseCode == 0 {
		resp.ResponseCode = domain.ResponseCodeSuccess
		if !isSuccess(resp.StatusCode) {
			resp.ResponseCode = domain.ResponseCodeInternalError
		}
	}
	if resp.Message == "" {
		resp.Message = domain.ResponseMessage(resp.ResponseCode)
	}
	if resp.Result == nil {
		resp.Result = gin.H{}
	}

	data := gin.H{
		"result":           resp.Result,
		"response_code":    resp.ResponseCode,
		"response_message": resp.Message,
	}
	for k, v := range resp.Other {
		data[k] = v
	}

	errs := resp.Errors
	if errs == nil {
		errs = gin.H{}
	}
	return Envelope{
		Status:     isSuccess(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Data:       data,
		Errors:     errs,
	}
}

func writeResponse(c *gin.Context, resp Response) {
	if resp.File != nil {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.File.Name))
		c.Data(http.StatusOK, resp.File.ContentType, resp.File.Body)
		return
	}
	env := wrap(resp)
	c.JSON(env.StatusCode, env)
}

func notFound(message string) Response {
	if message == "" {
		message = domain.ResponseMessage(domain.ResponseCodeNotFound)
	}
	return Response{
		StatusCode:   http.StatusOK,
		Result:       gin.H{},
		ResponseCode: domain.ResponseCodeNotFound,
		Message:      message,
	}
}

func objectResponse(rec models.Record, schema models.Schema, fields any) Response {
	if rec == nil {
		return notFound("")
	}
	return Response{
		StatusCode: http.StatusOK,
		Result:     Project(schema.Public(rec), ParseFields(fields)),
		Message:    "Retrieved object successfully.",
	}
}

func listResponse(res domain.ListResult, schema models.Schema, fields any) Response {
	other := gin.H{"count": res.Count, "next_url": false, "previous_url": false}
	if res.PageInfo != nil {
		other["page_info"] = res.PageInfo
		other["next_url"] = res.PageInfo.HasNext
		other["previous_url"] = res.PageInfo.HasPrevious
	}
	if res.ErrorInfo != nil {
		other["error_info"] = res.ErrorInfo
	}

	if len(res.Data) == 0 {
		resp := notFound("")
		resp.Other = other
		return resp
	}

	specs := ParseFields(fields)
	out := make([]models.Record, 0, len(res.Data))
	for _, rec := range res.Data {
		out = append(out, Project(schema.Public(rec), specs))
	}
	return Response{
		StatusCode: http.StatusOK,
		Result:     out,
		Message:    fmt.Sprintf("Retrieved %d object(s) successfully.", res.Count),
		Other:      other,
	}
}
