package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"apiscaffold/internal/cache"
	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"
)

const RequestFailedCode = "REMOTE_REQUEST_FAILED"

// Transform turns a decoded response body into records.
type Transform func(body map[string]any) ([]models.Record, error)

// ResponseFilter post-processes records before they are returned.
type ResponseFilter func(data []models.Record, params domain.Params) []models.Record

// Manager lists an entity through a remote JSON API instead of the database.
type Manager struct {
	Name      string
	Method    string
	BaseURL   string
	AuthCode  string
	PartnerID string

	Client *http.Client
	Cache  cache.Cache

	Transform Transform
	Filter    ResponseFilter

	// KeyReplace renames keys, Defaults fills missing keys and Remove drops keys
	// on every returned record.
	KeyReplace map[string]string
	Defaults   map[string]any
	Remove     []string
}

func (m *Manager) client() *http.Client {
	if m.Client != nil {
		return m.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (m *Manager) endpoint() (string, error) {
	if strings.TrimSpace(m.BaseURL) == "" {
		return "", domain.ConfigurationError{Msg: fmt.Sprintf("remote api %s has no base url", m.Name)}
	}
	return url.JoinPath(m.BaseURL, m.Name)
}

// RequestBody strips control keys so only real API parameters go out.
func RequestBody(params domain.Params) map[string]any {
	out := map[string]any{}
	for k, v := range params {
		if domain.IsControlKey(k) || k == domain.KeyCacheKey || k == domain.KeyListOfParams {
			continue
		}
		out[k] = v
	}
	return out
}

// Call performs the outbound request and classifies the answer. Business
// errors reported by the API come back in the ErrorInfo; anything but a 200
// is a RemoteError.
func (m *Manager) Call(ctx context.Context, params domain.Params) (map[string]any, *domain.ErrorInfo, error) {
	endpoint, err := m.endpoint()
	if err != nil {
		return nil, nil, err
	}
	body := RequestBody(params)

	var req *http.Request
	if strings.EqualFold(m.Method, http.MethodPost) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, domain.ValidationError{Msg: "request parameters are not JSON encodable", Err: err}
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		if err != nil {
			return nil, nil, err
		}
	} else {
		q := url.Values{}
		for k, v := range body {
			if vs, ok := v.([]string); ok {
				q[k] = vs
				continue
			}
			q.Set(k, utils.ToString(v))
		}
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, nil, err
		}
	}
	req.Header.Set("authorization_code", m.AuthCode)
	req.Header.Set("partner_id", m.PartnerID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := m.client().Do(req)
	if err != nil {
		return nil, nil, domain.RemoteError{API: m.Name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, nil, domain.RemoteError{API: m.Name, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		utils.LogEvent("", "remote", "call", fmt.Sprintf("api=%s status=%d body=%.200s", m.Name, resp.StatusCode, raw))
		return nil, nil, domain.RemoteError{API: m.Name, StatusCode: resp.StatusCode}
	}

	decoded, err := decodeBody(raw)
	if err != nil {
		utils.LogEvent("", "remote", "decode", fmt.Sprintf("api=%s err=%v", m.Name, err))
		return nil, nil, domain.RemoteError{API: m.Name, Err: err}
	}
	return decoded, classify(decoded), nil
}

func decodeBody(raw []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		return map[string]any{"data": t}, nil
	default:
		return nil, fmt.Errorf("unexpected response body of type %T", v)
	}
}

func classify(body map[string]any) *domain.ErrorInfo {
	info := domain.NewErrorInfo()
	codes, _ := body["errorCodes"].([]any)
	for _, c := range codes {
		switch t := c.(type) {
		case map[string]any:
			desc := utils.ToString(t["description"])
			if desc == "" {
				desc = utils.ToString(t["message"])
			}
			code := utils.ToString(t["errorCode"])
			if code == "" {
				code = utils.ToString(t["code"])
			}
			info.Add(code, desc, domain.SeverityWarning)
		default:
			info.Add(utils.ToString(t), "", domain.SeverityWarning)
		}
	}
	if len(codes) == 0 && isFalse(body["success"]) {
		info.Add(RequestFailedCode, utils.ToString(body["message"]), domain.SeverityWarning)
	}
	return info
}

func isFalse(v any) bool {
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "false")
	}
	return false
}

// List reads through the cache. cacheKey wins over a cache_key parameter; an
// empty key disables caching. Only non-empty, error-free results are stored.
func (m *Manager) List(ctx context.Context, cacheKey string, params domain.Params) (domain.ListResult, error) {
	if cacheKey == "" {
		cacheKey = utils.ToString(params[domain.KeyCacheKey])
	}

	if cacheKey != "" && m.Cache != nil {
		if data, ok := m.cached(cacheKey); ok {
			return m.result(data, domain.NewErrorInfo(), params), nil
		}
	}

	body, info, err := m.Call(ctx, params)
	if err != nil {
		return domain.ListResult{}, err
	}

	transform := m.Transform
	if transform == nil {
		transform = DefaultTransform
	}
	data, err := transform(body)
	if err != nil {
		return domain.ListResult{}, domain.RemoteError{API: m.Name, Err: err}
	}
	data = m.format(data)

	if cacheKey != "" && m.Cache != nil && len(data) > 0 && !info.HasErrors() {
		if b, err := json.Marshal(data); err == nil {
			if err := m.Cache.Set(cacheKey, b); err != nil {
				utils.LogEvent("", "remote", "cache_set", fmt.Sprintf("api=%s key=%s err=%v", m.Name, cacheKey, err))
			}
		}
	}
	return m.result(data, info, params), nil
}

func (m *Manager) cached(key string) ([]models.Record, bool) {
	b, ok, err := m.Cache.Get(key)
	if err != nil {
		utils.LogEvent("", "remote", "cache_get", fmt.Sprintf("api=%s key=%s err=%v", m.Name, key, err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var data []models.Record
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, false
	}
	return data, true
}

func (m *Manager) result(data []models.Record, info *domain.ErrorInfo, params domain.Params) domain.ListResult {
	if m.Filter != nil {
		data = m.Filter(data, params)
	}
	if data == nil {
		data = []models.Record{}
	}
	return domain.ListResult{Data: data, Count: len(data), ErrorInfo: info}
}

// DefaultTransform reads records from the "data" key: a list of objects or a single object.
func DefaultTransform(body map[string]any) ([]models.Record, error) {
	switch t := body["data"].(type) {
	case nil:
		return []models.Record{}, nil
	case map[string]any:
		return []models.Record{t}, nil
	case []any:
		out := make([]models.Record, 0, len(t))
		for i, item := range t {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("data[%d] is %T, want object", i, item)
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("data is %T, want list or object", t)
	}
}

func (m *Manager) format(data []models.Record) []models.Record {
	if len(m.KeyReplace) == 0 && len(m.Defaults) == 0 && len(m.Remove) == 0 {
		return data
	}
	for _, rec := range data {
		for from, to := range m.KeyReplace {
			if v, ok := rec[from]; ok {
				delete(rec, from)
				rec[to] = v
			}
		}
		for k, v := range m.Defaults {
			if _, ok := rec[k]; !ok {
				rec[k] = v
			}
		}
		for _, k := range m.Remove {
			delete(rec, k)
		}
	}
	return data
}
