package handlers

import (
	"context"
	"net/http"
	"time"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/http/middleware"
	"apiscaffold/internal/http/request"
	"apiscaffold/internal/repositories"
	"apiscaffold/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid email/username or password."

// UserFinder looks users up by exact column match.
type UserFinder interface {
	Model() models.Schema
	Fetch(ctx context.Context, filter map[string]any) ([]models.Record, error)
}

type AuthHandler struct {
	Users    UserFinder
	Secret   []byte
	TokenTTL time.Duration
}

// Login handles POST /api/auth/login with email (or username) and password.
func (h AuthHandler) Login(c *gin.Context) {
	req := request.Extract(c)
	params := req.RequestParams
	if err := repositories.ValidateMandatory(params, "email", "password"); err != nil {
		RespondDomainError(c, err)
		return
	}

	ctx := c.Request.Context()
	ident := utils.ToString(params["email"])
	var found []models.Record
	for _, col := range []string{"email", "username"} {
		rows, err := h.Users.Fetch(ctx, map[string]any{col: ident})
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		if len(rows) > 0 {
			found = rows
			break
		}
	}
	if len(found) != 1 {
		RespondError(c, http.StatusUnauthorized, invalidCredentials, nil)
		return
	}

	user := found[0]
	hash := utils.ToString(user["password_hash"])
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(utils.ToString(params["password"]))) != nil {
		RespondError(c, http.StatusUnauthorized, invalidCredentials, nil)
		return
	}
	if _, ok := user["is_active"]; ok && !utils.IsTruthy(user["is_active"]) {
		RespondError(c, http.StatusForbidden, "Account is deactivated.", nil)
		return
	}

	id, err := utils.ToInt64(user["id"])
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "user id is not numeric", Err: err})
		return
	}
	principal := domain.Principal{UserID: id, Username: utils.ToString(user["username"]), Role: utils.ToString(user["role"])}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := middleware.IssueToken(h.Secret, principal, ttl)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "failed to sign token", Err: err})
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "user_id="+utils.ToString(id))
	writeResponse(c, Response{
		StatusCode: http.StatusOK,
		Result:     gin.H{"token": token, "user": h.Users.Model().Public(user)},
		Message:    "Logged in successfully.",
	})
}
