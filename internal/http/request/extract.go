package request

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/http/middleware"
	"apiscaffold/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 10 << 20

// Extract assembles the request parameter bag: query string, then form body,
// then JSON body, later sources overwriting earlier ones. Unparseable bodies
// are ignored.
func Extract(c *gin.Context) *domain.RequestData {
	query := domain.Params{}
	for k, vs := range c.Request.URL.Query() {
		query[k] = collapse(vs)
	}

	bag := query.Clone()
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		mergeForm(c, bag)
	default:
		mergeJSON(c, bag)
	}

	method := DefaultMethod(c.Request.Method)
	if override := strings.ToLower(utils.ToString(bag[domain.KeyServiceMethod])); override != "" {
		method = override
	}
	delete(bag, domain.KeyServiceMethod)

	dataSource := strings.ToUpper(utils.ToString(bag[domain.KeyDataSource]))
	if dataSource == "" {
		dataSource = domain.DataSourceFile
	}

	count := 0
	for k := range bag {
		if !domain.IsControlKey(k) {
			count++
		}
	}

	pk := strings.TrimSpace(c.Param("pk"))
	if pk != "" {
		count++
	} else {
		pk = utils.ToString(bag["id"])
	}

	return &domain.RequestData{
		ServiceMethod: ResolveMethod(method, pk != "", count),
		DataSource:    dataSource,
		Fields:        bag[domain.KeyFields],
		PK:            pk,
		QueryParams:   query,
		RequestParams: bag,
		LoggedInUser:  middleware.PrincipalFrom(c),
		ParamCount:    count,
	}
}

// DefaultMethod maps an HTTP verb to its service method.
func DefaultMethod(verb string) string {
	switch strings.ToUpper(verb) {
	case http.MethodGet:
		return domain.MethodList
	case http.MethodPost:
		return domain.MethodCreate
	case http.MethodDelete:
		return domain.MethodDelete
	default:
		return domain.MethodUpdate
	}
}

// ResolveMethod adjusts method once a primary key is known: a lone-parameter
// list becomes retrieve and create becomes update.
func ResolveMethod(method string, pkPresent bool, paramCount int) string {
	if !pkPresent {
		return method
	}
	switch {
	case method == domain.MethodList && paramCount == 1:
		return domain.MethodRetrieve
	case method == domain.MethodCreate:
		return domain.MethodUpdate
	}
	return method
}

func collapse(vs []string) any {
	if len(vs) == 1 {
		return vs[0]
	}
	return append([]string(nil), vs...)
}

func mergeForm(c *gin.Context, bag domain.Params) {
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			return
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return
	}
	for k, vs := range c.Request.PostForm {
		bag[k] = collapse(vs)
	}
}

func mergeJSON(c *gin.Context, bag domain.Params) {
	if c.Request.Body == nil {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return
	}
	switch v := body.(type) {
	case map[string]any:
		for k, val := range v {
			bag[k] = val
		}
	case []any:
		bag[domain.KeyListOfParams] = v
	}
}
