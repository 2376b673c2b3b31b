package domain

import (
	"strings"

	"apiscaffold/internal/domain/models"
)

// Service methods understood by the dispatcher.
const (
	MethodList         = "list"
	MethodRetrieve     = "retrieve"
	MethodCreate       = "create"
	MethodUpdate       = "update"
	MethodDelete       = "delete"
	MethodDestroy      = "destroy"
	MethodSaveOrUpdate = "save_or_update"
	MethodExport       = "export"
)

// Reserved request keys. They steer processing and are never used as filters or field values.
const (
	KeyServiceMethod    = "service_method"
	KeyFields           = "fields"
	KeyPage             = "page"
	KeyPageSize         = "page_size"
	KeyOrderBy          = "order_by"
	KeyDataSource       = "data_source"
	KeyLoggedInUser     = "logged_in_user"
	KeyFilterSessionKey = "filter_session_key"
	KeyCacheKey         = "cache_key"
	KeyListOfParams     = "LIST_OF_PARAMS"
)

const (
	DataSourceFile = "FILE"
	DataSourceAPI  = "API"
)

var controlKeys = map[string]struct{}{
	KeyServiceMethod:    {},
	KeyFields:           {},
	KeyPage:             {},
	KeyPageSize:         {},
	KeyOrderBy:          {},
	KeyDataSource:       {},
	KeyLoggedInUser:     {},
	KeyFilterSessionKey: {},
}

// IsControlKey reports whether key is reserved for request processing.
func IsControlKey(key string) bool {
	_, ok := controlKeys[key]
	return ok
}

// Params is the loosely typed parameter bag assembled from a request.
type Params map[string]any

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// WithoutControlKeys returns a copy with every reserved key removed.
func (p Params) WithoutControlKeys() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if IsControlKey(k) || k == KeyListOfParams {
			continue
		}
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-empty value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Principal is the authenticated caller, when there is one.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

// Parameter tiers, combined in this order (later tiers win).
const (
	TierQueryParams          = "query_params"
	TierRequestParams        = "request_params"
	TierLoggedInUser         = "logged_in_user"
	TierAdditionalParameters = "additional_parameters"
)

var tierOrder = []string{TierQueryParams, TierRequestParams, TierLoggedInUser, TierAdditionalParameters}

// CombineTiers flattens the recognised tiers. Map tiers are merged key by key;
// any other tier value is stored under its tier name.
func CombineTiers(tiers map[string]any) Params {
	out := Params{}
	for _, name := range tierOrder {
		v, ok := tiers[name]
		if !ok || v == nil {
			continue
		}
		switch tv := v.(type) {
		case Params:
			for k, val := range tv {
				out[k] = val
			}
		case map[string]any:
			for k, val := range tv {
				out[k] = val
			}
		default:
			out[name] = v
		}
	}
	return out
}

// RequestData is what the extractor hands to service handlers.
type RequestData struct {
	ServiceMethod string
	DataSource    string
	Fields        any
	PK            string

	QueryParams          Params
	RequestParams        Params
	LoggedInUser         *Principal
	AdditionalParameters Params

	ParamCount int
}

// AllParams merges every tier of the request into one bag.
func (r *RequestData) AllParams() Params {
	if r == nil {
		return Params{}
	}
	tiers := map[string]any{
		TierQueryParams:          r.QueryParams,
		TierRequestParams:        r.RequestParams,
		TierAdditionalParameters: r.AdditionalParameters,
	}
	if r.LoggedInUser != nil {
		tiers[TierLoggedInUser] = r.LoggedInUser
	}
	return CombineTiers(tiers)
}

// Response codes carried inside the envelope's data block.
const (
	ResponseCodeInternalError = 1000
	ResponseCodeSuccess       = 1001
	ResponseCodeNotFound      = 1004
)

var responseMessages = map[int]string{
	ResponseCodeInternalError: "Internal server error.",
	ResponseCodeSuccess:       "Successfully done.",
	ResponseCodeNotFound:      "Not found.",
}

// ResponseMessage returns the default message for a response code.
func ResponseMessage(code int) string {
	if m, ok := responseMessages[code]; ok {
		return m
	}
	return UnknownErrorMessage
}

// Severity levels for ErrorInfo.ErrorNo.
const (
	SeverityNone    = 0
	SeverityWarning = 1
	SeverityFailure = 2
)

const UnknownErrorCode = "UNKNOWN_ERROR"

type ErrorItem struct {
	ErrorCode   string `json:"error_code"`
	Description string `json:"description"`
}

// ErrorInfo accumulates business errors. ErrorNo only ever increases.
type ErrorInfo struct {
	Errors  []ErrorItem `json:"errors"`
	ErrorNo int         `json:"error_no"`
}

func NewErrorInfo() *ErrorInfo {
	return &ErrorInfo{Errors: []ErrorItem{}}
}

// Add appends an entry and raises ErrorNo to severity when it is higher.
func (e *ErrorInfo) Add(code, description string, severity int) {
	if code == "" {
		code = UnknownErrorCode
		if description == "" {
			description = UnknownErrorMessage
		}
	}
	if description == "" {
		description = " "
	}
	e.Errors = append(e.Errors, ErrorItem{ErrorCode: code, Description: description})
	if severity > e.ErrorNo {
		e.ErrorNo = severity
	}
}

func (e *ErrorInfo) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// PageInfo describes one page of a paginated listing.
type PageInfo struct {
	NumPages     int  `json:"num_pages"`
	StartCount   int  `json:"start_count"`
	EndCount     int  `json:"end_count"`
	CurrentPage  int  `json:"current_page"`
	ItemsPerPage int  `json:"items_per_page"`
	TotalCount   int  `json:"total_count"`
	HasNext      bool `json:"next_url"`
	HasPrevious  bool `json:"previous_url"`
}

// ListResult is the outcome of a list operation, local or remote.
type ListResult struct {
	Data       []models.Record `json:"data"`
	Count      int             `json:"count"`
	Pagination bool            `json:"pagination"`
	PageInfo   *PageInfo       `json:"page_info,omitempty"`
	ErrorInfo  *ErrorInfo      `json:"error_info,omitempty"`
}
