package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/http/middleware"
	"apiscaffold/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// errorResponse converts a service-method failure into an envelope. Internal
// detail is logged, never returned.
func errorResponse(c *gin.Context, err error) Response {
	reqID := middleware.GetRequestID(c)
	other := gin.H{"request_id": reqID}
	fail := func(status int, message string, errs any) Response {
		return Response{
			StatusCode:   status,
			Result:       gin.H{},
			ResponseCode: domain.ResponseCodeInternalError,
			Message:      message,
			Other:        other,
			Errors:       errs,
		}
	}

	var (
		ve domain.ValidationError
		me *mysql.MySQLError
	)
	switch {
	case errors.As(err, &ve):
		return fail(http.StatusBadRequest, ve.Error(), validationErrors(ve))
	case errors.As(err, &me) && me.Number == mysqlDuplicateEntry:
		utils.LogEvent(reqID, "dispatch", "duplicate", me.Error())
		return fail(http.StatusConflict, "Duplicate entry.", gin.H{"data_error": fmt.Sprintf("#%d: duplicate entry", me.Number)})
	case errors.As(err, &me):
		utils.LogEvent(reqID, "dispatch", "data_error", me.Error())
		return fail(http.StatusBadRequest, "Invalid data.", gin.H{"data_error": fmt.Sprintf("#%d: %s", me.Number, me.Message)})
	case domain.IsConflict(err):
		return fail(http.StatusConflict, err.Error(), gin.H{"error": "#Message: " + err.Error()})
	case domain.IsNotFound(err):
		resp := notFound("")
		resp.Other = other
		return resp
	case domain.IsConfiguration(err):
		utils.LogEvent(reqID, "dispatch", "configuration", err.Error())
		return fail(http.StatusInternalServerError, "Service is not configured.", gin.H{"error": domain.UnknownErrorMessage})
	case domain.IsRemote(err):
		utils.LogEvent(reqID, "dispatch", "remote", err.Error())
		info := domain.NewErrorInfo()
		info.Add(domain.UnknownErrorCode, domain.UnknownErrorMessage, domain.SeverityFailure)
		return fail(http.StatusBadGateway, domain.UnknownErrorMessage, info)
	default:
		utils.LogEvent(reqID, "dispatch", "error", err.Error())
		return fail(http.StatusBadRequest, domain.UnknownErrorMessage, gin.H{"error": domain.UnknownErrorMessage})
	}
}

func validationErrors(ve domain.ValidationError) gin.H {
	out := gin.H{}
	for field, msg := range ve.Fields {
		out[field] = gin.H{"is_validate": false, "validate_msg": msg}
	}
	if len(ve.Fields) == 0 || ve.Msg != "" {
		out["error"] = "#Message: " + ve.Error()
	}
	return out
}

// RespondDomainError writes err as an error envelope.
func RespondDomainError(c *gin.Context, err error) {
	writeResponse(c, errorResponse(c, err))
}
