package request

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"apiscaffold/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextFor(t *testing.T, req *http.Request, pk string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	if pk != "" {
		c.Params = gin.Params{{Key: "pk", Value: pk}}
	}
	return c
}

func TestExtractJSONOverridesQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/partners?name=fromQuery&status=active", strings.NewReader(`{"name":"fromBody","code":"P1"}`))
	req.Header.Set("Content-Type", "application/json")

	data := Extract(contextFor(t, req, ""))

	assert.Equal(t, domain.MethodCreate, data.ServiceMethod)
	assert.Equal(t, "fromBody", data.RequestParams["name"])
	assert.Equal(t, "active", data.RequestParams["status"])
	assert.Equal(t, "fromQuery", data.QueryParams["name"])
	assert.Equal(t, domain.DataSourceFile, data.DataSource)
	assert.Equal(t, "fromBody", data.AllParams()["name"])
}

func TestExtractFormBody(t *testing.T) {
	form := url.Values{"name": {"formName"}, "tags": {"a", "b"}}
	req := httptest.NewRequest(http.MethodPut, "/api/partners/4?name=q", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	data := Extract(contextFor(t, req, "4"))

	assert.Equal(t, domain.MethodUpdate, data.ServiceMethod)
	assert.Equal(t, "formName", data.RequestParams["name"])
	assert.Equal(t, []string{"a", "b"}, data.RequestParams["tags"])
	assert.Equal(t, "4", data.PK)
}

func TestExtractListBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/partners", strings.NewReader(`[{"code":"A"},{"code":"B"}]`))
	req.Header.Set("Content-Type", "application/json")

	data := Extract(contextFor(t, req, ""))

	items, ok := data.RequestParams[domain.KeyListOfParams].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
	assert.Equal(t, domain.MethodCreate, data.ServiceMethod)
}

func TestExtractIgnoresBrokenJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/partners?code=Q", strings.NewReader(`{"code":`))
	req.Header.Set("Content-Type", "application/json")

	data := Extract(contextFor(t, req, ""))
	assert.Equal(t, "Q", data.RequestParams["code"])
}

func TestExtractServiceMethodOverrideIsPopped(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/partners?service_method=EXPORT&data_source=api", nil)

	data := Extract(contextFor(t, req, ""))

	assert.Equal(t, domain.MethodExport, data.ServiceMethod)
	assert.NotContains(t, data.RequestParams, domain.KeyServiceMethod)
	assert.Equal(t, domain.DataSourceAPI, data.DataSource)
}

func TestExtractResolvesRetrieveFromID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/partners?id=5", nil)
	data := Extract(contextFor(t, req, ""))
	assert.Equal(t, domain.MethodRetrieve, data.ServiceMethod)
	assert.Equal(t, "5", data.PK)

	req = httptest.NewRequest(http.MethodGet, "/api/partners/5?fields=id,name", nil)
	data = Extract(contextFor(t, req, "5"))
	assert.Equal(t, domain.MethodRetrieve, data.ServiceMethod)
	assert.Equal(t, "id,name", data.Fields)

	req = httptest.NewRequest(http.MethodGet, "/api/partners?id=5&status=active", nil)
	data = Extract(contextFor(t, req, ""))
	assert.Equal(t, domain.MethodList, data.ServiceMethod)
}

func TestResolveMethod(t *testing.T) {
	cases := []struct {
		method string
		pk     bool
		count  int
		want   string
	}{
		{domain.MethodList, true, 1, domain.MethodRetrieve},
		{domain.MethodList, true, 2, domain.MethodList},
		{domain.MethodList, false, 1, domain.MethodList},
		{domain.MethodCreate, true, 3, domain.MethodUpdate},
		{domain.MethodCreate, false, 3, domain.MethodCreate},
		{domain.MethodDelete, true, 1, domain.MethodDelete},
		{domain.MethodExport, true, 1, domain.MethodExport},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveMethod(tc.method, tc.pk, tc.count), "%+v", tc)
	}
}

func TestDefaultMethod(t *testing.T) {
	assert.Equal(t, domain.MethodList, DefaultMethod("GET"))
	assert.Equal(t, domain.MethodCreate, DefaultMethod("POST"))
	assert.Equal(t, domain.MethodDelete, DefaultMethod("DELETE"))
	assert.Equal(t, domain.MethodUpdate, DefaultMethod("PATCH"))
	assert.Equal(t, domain.MethodUpdate, DefaultMethod("PUT"))
}
