package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"apiscaffold/internal/cache"
	intconfig "apiscaffold/internal/config"
	"apiscaffold/internal/domain"
	"apiscaffold/internal/http/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "name", "username", "email", "phone", "password_hash", "role", "is_active", "address_id", "created_at", "updated_at"}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	env := intconfig.Env{JWTSecret: "router-secret", RemoteAPITimeout: time.Second}
	app := NewApp(env, sqlDB, cache.NewMemory(time.Minute))
	return NewRouter(app), mock
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRegistryHoldsEveryEntity(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	app := NewApp(intconfig.Env{}, sqlDB, cache.NewMemory(time.Minute))
	assert.ElementsMatch(t, []string{"SYSTEM_SETTINGS", "ADDRESSES", "USERS", "ROLES", "PARTNERS"}, app.Registry.Names())
}

func TestHealthAndRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/api/routes", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["routes"])

	w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWritesToSettingsNeedAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/system-settings", bytes.NewBufferString(`{"prop_key":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := middleware.IssueToken([]byte("router-secret"), domain.Principal{UserID: 2, Role: "user"}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/settings/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w, _ = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginIssuesToken(t *testing.T) {
	r, mock := newTestRouter(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE \\(email = \\?\\)").
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(7), "Ann", "ann", "ann@example.com", nil, string(hash), "admin", true, nil, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"ann@example.com","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	w, body := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := body["data"].(map[string]any)["result"].(map[string]any)
	tok, _ := result["token"].(string)
	p, err := middleware.ParseToken([]byte("router-secret"), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "admin", p.Role)

	user := result["user"].(map[string]any)
	assert.NotContains(t, user, "password_hash")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRequiresCredentials(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"ann@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w, body := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "password")
}
